package command

import (
	"strings"
	"unicode"
)

// IsBlank reports whether line is empty or whitespace only.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsComment reports whether line is a # comment, optionally indented.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// Indent returns the leading whitespace of line.
func Indent(line string) string {
	return line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
}

// openParen returns the index of the first '(' not preceded by a backslash, or -1.
func openParen(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '(' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// ParseName returns the command name: the text before the first unescaped '('.
// Blank and comment lines yield "" with no error.
func ParseName(line string) (string, error) {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, "#") {
		return "", nil
	}
	idx := openParen(t)
	if idx < 0 {
		return "", syntaxErrorf(line, "missing '('")
	}
	name := strings.TrimSpace(t[:idx])
	if name == "" {
		return "", syntaxErrorf(line, "missing command name before '('")
	}
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.') {
			return "", syntaxErrorf(line, "invalid character %q in command name %q", r, name)
		}
	}
	return name, nil
}

// ParseParameterBlock returns the text strictly between the first '(' and the last ')'.
// The last ')' must be the final character of the trimmed line and parentheses outside
// quoted values must balance.
func ParseParameterBlock(line string) (string, error) {
	t := strings.TrimSpace(line)
	open := openParen(t)
	if open < 0 {
		return "", syntaxErrorf(line, "missing '('")
	}
	closeIdx := strings.LastIndex(t, ")")
	if closeIdx < open {
		return "", syntaxErrorf(line, "missing closing ')'")
	}
	if closeIdx != len(t)-1 {
		return "", syntaxErrorf(line, "unexpected text %q after closing ')'", t[closeIdx+1:])
	}

	depth := 0
	inQuote := false
	for i := open; i <= closeIdx; i++ {
		c := t[i]
		switch {
		case c == '"' && (i == 0 || t[i-1] != '\\'):
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return "", syntaxErrorf(line, "unbalanced ')'")
			}
		}
	}
	if depth != 0 && !inQuote {
		return "", syntaxErrorf(line, "unbalanced parentheses")
	}
	return t[open+1 : closeIdx], nil
}

// SplitIntoPairs splits a parameter block into Name="Value" tokens. Commas split
// tokens only outside quoted values. Malformed tokens are reported as warnings and
// parsing continues with the next token; tokens without '=' are dropped.
func SplitIntoPairs(block string) ([]string, []error) {
	var (
		pairs    []string
		warnings []error
		cur      strings.Builder
		started  bool
		inQuote  bool
		prev     rune
	)

	emit := func() {
		tok := strings.TrimSpace(cur.String())
		cur.Reset()
		started = false
		if tok == "" {
			return
		}
		eq := strings.Index(tok, "=")
		if eq < 0 {
			warnings = append(warnings, syntaxErrorf(block, "parameter %q is missing '='", tok))
			return
		}
		val := strings.TrimSpace(tok[eq+1:])
		if len(val) < 2 || !strings.HasPrefix(val, `"`) || !strings.HasSuffix(val, `"`) {
			warnings = append(warnings, syntaxErrorf(block, "parameter %q value is not enclosed in double quotes", tok))
		}
		pairs = append(pairs, tok)
	}

	for _, r := range block {
		if !started {
			if unicode.IsSpace(r) {
				continue
			}
			started = true
		}
		switch {
		case r == '"' && prev != '\\':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			emit()
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	if inQuote {
		warnings = append(warnings, syntaxErrorf(block, "unbalanced double quote"))
	}
	if started {
		emit()
	}
	return pairs, warnings
}

// PairsToMap converts Name="Value" tokens to Parameters. One layer of surrounding
// double quotes is stripped from each value; interior quotes are kept verbatim.
// The last token wins for duplicate names.
func PairsToMap(pairs []string) (*Parameters, []error) {
	params := NewParameters()
	var warnings []error
	for _, tok := range pairs {
		eq := strings.Index(tok, "=")
		if eq < 0 {
			warnings = append(warnings, syntaxErrorf(tok, "parameter is missing '='"))
			continue
		}
		name := strings.TrimSpace(tok[:eq])
		if name == "" {
			warnings = append(warnings, syntaxErrorf(tok, "parameter name is empty"))
			continue
		}
		params.Set(name, unquote(strings.TrimSpace(tok[eq+1:])))
	}
	return params, warnings
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// ParseParameters runs the full parse of a command line. A non-nil error means the
// parameter block could not be located; warnings describe recoverable token problems.
func ParseParameters(line string) (*Parameters, []error, error) {
	block, err := ParseParameterBlock(line)
	if err != nil {
		return nil, nil, err
	}
	pairs, warnings := SplitIntoPairs(block)
	params, more := PairsToMap(pairs)
	return params, append(warnings, more...), nil
}
