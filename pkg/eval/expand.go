// Package eval implements ${Property} expansion of parameter values and the
// boolean condition language used by If.
package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a property name to its string form.
type Lookup func(name string) (string, bool)

// MapLookup returns a Lookup over props, stringifying values.
func MapLookup(props map[string]any) Lookup {
	return func(name string) (string, bool) {
		v, ok := props[name]
		if !ok {
			return "", false
		}
		return Stringify(v), true
	}
}

var unescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`)

// Expand replaces each ${Name} in value with the looked-up property.
// References that do not resolve are left in place. Escaped quotes are
// unescaped once before scanning; substituted text is never rescanned.
//
// Example: Expand("out/${Year}.csv", lookup) → "out/2024.csv"
func Expand(value string, lookup Lookup) string {
	if value == "" {
		return value
	}
	s := unescaper.Replace(value)
	if lookup == nil {
		return s
	}
	pos := 0
	for pos < len(s) {
		start := strings.Index(s[pos:], "${")
		if start < 0 {
			break
		}
		start += pos
		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			break
		}
		end += start + 2
		name := s[start+2 : end]
		v, ok := lookup(name)
		if !ok {
			pos = end + 1
			continue
		}
		s = s[:start] + v + s[end+1:]
		pos = start + len(v)
	}
	return s
}

// References returns the property names referenced by value, in order.
func References(value string) []string {
	var out []string
	for {
		start := strings.Index(value, "${")
		if start < 0 {
			return out
		}
		end := strings.IndexByte(value[start+2:], '}')
		if end < 0 {
			return out
		}
		out = append(out, value[start+2:start+2+end])
		value = value[start+2+end+1:]
	}
}

// Stringify converts a property value to the text substituted for it.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
