package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Condition evaluates a boolean expr-lang expression with the properties as
// variables. Property references should already be expanded.
// Supports: Count > 2, Name == "roads", len(Layers) > 0 && Flag, etc.
// An empty condition is true.
func Condition(exprStr string, props map[string]any) (bool, error) {
	exprStr = strings.TrimSpace(exprStr)
	if exprStr == "" {
		return true, nil
	}
	env := make(map[string]any, len(props))
	for k, v := range props {
		env[k] = v
	}
	program, err := expr.Compile(exprStr, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", exprStr, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", exprStr, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T: %v)", exprStr, output, output)
	}
	return result, nil
}

// comparison operators, longest first so "<=" is not read as "<".
var operators = []string{"==", "!=", "<=", ">=", "<", ">"}

// CompareStrings evaluates "left op right", comparing both sides as strings.
// Sides may be wrapped in single or double quotes.
func CompareStrings(cond string) (bool, error) {
	left, op, right, err := splitComparison(cond)
	if err != nil {
		return false, err
	}
	switch op {
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	case "<":
		return left < right, nil
	case "<=":
		return left <= right, nil
	case ">":
		return left > right, nil
	default:
		return left >= right, nil
	}
}

func splitComparison(cond string) (left, op, right string, err error) {
	inQuote := rune(0)
	for i, r := range cond {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			}
			continue
		case r == '"' || r == '\'':
			inQuote = r
			continue
		}
		for _, o := range operators {
			if strings.HasPrefix(cond[i:], o) {
				return unquoteSide(cond[:i]), o, unquoteSide(cond[i+len(o):]), nil
			}
		}
	}
	return "", "", "", fmt.Errorf("condition %q: expected left op right with op one of %s", cond, strings.Join(operators, " "))
}

func unquoteSide(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Coerce converts a string property value to bool, int or float when it
// parses as one, for use as an expression variable.
func Coerce(s string) any {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(t); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}
