package command

import (
	"fmt"
	"sort"
	"strings"
)

// List and dict parameter values are string encoded so command files stay
// hand-editable:
//
//	list: ['a','b,c','it\'s']   or bare   a, b, c
//	dict: {'k1':'v1','k2':'v2'} or bare   k1:v1, k2:v2
//
// Items may be wrapped in single quotes; inside quotes commas and colons are
// literal and \' is a quote. Surrounding whitespace of unquoted items is trimmed.

// DecodeList decodes a list parameter value. An empty value is an empty list.
func DecodeList(s string) ([]string, error) {
	body, err := unwrap(s, '[', ']')
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	items, err := splitQuoted(body, ',')
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", s, err)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		v, err := unquoteItem(it)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeList encodes items in the bracketed, single-quoted form.
func EncodeList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = quoteItem(it)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// DecodeDict decodes a dict parameter value.
func DecodeDict(s string) (map[string]string, error) {
	body, err := unwrap(s, '{', '}')
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if strings.TrimSpace(body) == "" {
		return out, nil
	}
	entries, err := splitQuoted(body, ',')
	if err != nil {
		return nil, fmt.Errorf("dict %q: %w", s, err)
	}
	for _, e := range entries {
		kv, err := splitQuoted(e, ':')
		if err != nil {
			return nil, fmt.Errorf("dict %q: %w", s, err)
		}
		if len(kv) < 2 {
			return nil, fmt.Errorf("dict %q: entry %q is missing ':'", s, strings.TrimSpace(e))
		}
		// Values may contain unquoted colons (e.g. C:\data); rejoin the tail.
		key, err := unquoteItem(kv[0])
		if err != nil {
			return nil, fmt.Errorf("dict %q: %w", s, err)
		}
		val, err := unquoteItem(strings.Join(kv[1:], ":"))
		if err != nil {
			return nil, fmt.Errorf("dict %q: %w", s, err)
		}
		if key == "" {
			return nil, fmt.Errorf("dict %q: empty key", s)
		}
		out[key] = val
	}
	return out, nil
}

// EncodeDict encodes m with keys in sorted order.
func EncodeDict(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quoteItem(k) + ":" + quoteItem(m[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func unwrap(s string, open, closeCh byte) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", nil
	}
	hasOpen := t[0] == open
	hasClose := t[len(t)-1] == closeCh
	switch {
	case hasOpen && hasClose && len(t) >= 2:
		return t[1 : len(t)-1], nil
	case hasOpen || hasClose:
		return "", fmt.Errorf("value %q: unbalanced %c%c", s, open, closeCh)
	}
	return t, nil
}

// splitQuoted splits s on sep outside single-quoted sections.
func splitQuoted(s string, sep rune) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			cur.WriteRune(r)
		case r == '\\' && inQuote:
			escaped = true
			cur.WriteRune(r)
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == sep && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unbalanced single quote")
	}
	out = append(out, cur.String())
	return out, nil
}

func unquoteItem(s string) (string, error) {
	t := strings.TrimSpace(s)
	if len(t) >= 2 && t[0] == '\'' && t[len(t)-1] == '\'' {
		return strings.ReplaceAll(t[1:len(t)-1], `\'`, `'`), nil
	}
	if strings.Contains(t, "'") {
		return "", fmt.Errorf("item %q: quotes must enclose the whole item", t)
	}
	return t, nil
}

func quoteItem(s string) string {
	return "'" + strings.ReplaceAll(s, `'`, `\'`) + "'"
}
