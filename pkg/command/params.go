package command

import "strings"

// Type is the semantic type of a parameter value. All values are carried as
// strings; the type drives validation and decoding.
type Type string

const (
	String Type = "String"
	Bool   Type = "Bool"
	Int    Type = "Int"
	Float  Type = "Float"
	List   Type = "List"
	Dict   Type = "Dict"
)

// ParameterMetadata declares one parameter of a command type. The order of a
// command's metadata slice is the canonical formatting order.
type ParameterMetadata struct {
	Name        string   `json:"name"`
	Type        Type     `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Default     string   `json:"default,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Lookup finds name in meta case-insensitively.
func Lookup(meta []ParameterMetadata, name string) (ParameterMetadata, bool) {
	for _, m := range meta {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return ParameterMetadata{}, false
}

type param struct {
	name  string
	value string
}

// Parameters is the parsed name→value mapping of one command instance.
// Names keep the case they were entered with; lookup is case-insensitive.
// Insertion order is preserved.
type Parameters struct {
	entries []param
	index   map[string]int
}

// NewParameters returns an empty set.
func NewParameters() *Parameters {
	return &Parameters{index: make(map[string]int)}
}

// Set stores value under name. An existing entry (any case) is overwritten in place.
func (p *Parameters) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := p.index[key]; ok {
		p.entries[i].value = value
		return
	}
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, param{name: name, value: value})
}

// Get returns the value for name.
func (p *Parameters) Get(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	i, ok := p.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return p.entries[i].value, true
}

// Value returns the value for name, or "" when absent.
func (p *Parameters) Value(name string) string {
	v, _ := p.Get(name)
	return v
}

// Has reports whether name is present.
func (p *Parameters) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Delete removes name.
func (p *Parameters) Delete(name string) {
	key := strings.ToLower(name)
	i, ok := p.index[key]
	if !ok {
		return
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	delete(p.index, key)
	for j := i; j < len(p.entries); j++ {
		p.index[strings.ToLower(p.entries[j].name)] = j
	}
}

// Names returns parameter names in insertion order, as entered.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.name
	}
	return out
}

// Len returns the number of parameters.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Map returns a plain copy keyed by the entered names.
func (p *Parameters) Map() map[string]string {
	out := make(map[string]string, p.Len())
	if p == nil {
		return out
	}
	for _, e := range p.entries {
		out[e.name] = e.value
	}
	return out
}

// Clone returns an independent copy.
func (p *Parameters) Clone() *Parameters {
	c := NewParameters()
	if p == nil {
		return c
	}
	for _, e := range p.entries {
		c.Set(e.name, e.value)
	}
	return c
}
