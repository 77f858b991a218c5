package commands

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/eval"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// SetProperty sets a processor property from a typed value, or adds to or
// subtracts from a numeric property.
type SetProperty struct {
	command.Base
}

func NewSetProperty() command.Command {
	return &SetProperty{Base: command.NewBase("SetProperty",
		command.ParameterMetadata{Name: "PropertyName", Type: command.String, Required: true, Description: "Property to set."},
		command.ParameterMetadata{Name: "PropertyType", Type: command.String, Default: "String",
			Choices: []string{"String", "Bool", "Int", "Float", "List"}, Description: "Type the value is converted to."},
		command.ParameterMetadata{Name: "PropertyValue", Type: command.String, Description: "Value; may reference ${Property}."},
		command.ParameterMetadata{Name: "Add", Type: command.String, Description: "Number added to the current value."},
		command.ParameterMetadata{Name: "Subtract", Type: command.String, Description: "Number subtracted from the current value."},
	)}
}

func (c *SetProperty) ValidateParameters(params *command.Parameters) error {
	v := command.NewValidator(c, params).Standard()
	set := 0
	for _, n := range []string{"PropertyValue", "Add", "Subtract"} {
		if params.Has(n) {
			set++
		}
	}
	if set != 1 {
		v.Fail("Exactly one of PropertyValue, Add or Subtract must be specified.",
			"Specify PropertyValue to set, or Add/Subtract to change a number.")
	}
	return v.Err()
}

// Discover publishes the property name with its literal value, when it has
// no references, so later commands can be edited against it.
func (c *SetProperty) Discover(context.Context) error {
	proc := c.Processor()
	if proc == nil || !c.Parameters().Has("PropertyValue") {
		return nil
	}
	name := c.Expanded("PropertyName")
	if _, ok := proc.Property(name); ok {
		return nil
	}
	raw := c.Value("PropertyValue")
	if len(eval.References(raw)) > 0 {
		return nil
	}
	v, err := convert(c.Value("PropertyType"), raw)
	if err != nil {
		return err
	}
	proc.SetProperty(name, v)
	return nil
}

func (c *SetProperty) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	name := c.Expanded("PropertyName")
	params := c.Parameters()
	switch {
	case params.Has("Add"), params.Has("Subtract"):
		delta, sign := c.Expanded("Add"), 1.0
		if params.Has("Subtract") {
			delta, sign = c.Expanded("Subtract"), -1.0
		}
		cur, _ := proc.Property(name)
		v, err := addNumber(cur, delta, sign)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		proc.SetProperty(name, v)
	default:
		v, err := convert(c.Value("PropertyType"), c.Expanded("PropertyValue"))
		if err != nil {
			c.Status().Add(status.Run, status.Failure, fmt.Sprintf("Cannot set %s: %v.", name, err),
				"Check PropertyValue against PropertyType.")
			return nil
		}
		proc.SetProperty(name, v)
	}
	return nil
}

func convert(typ, value string) (any, error) {
	switch strings.ToLower(typ) {
	case "bool":
		return command.ParseBool(value)
	case "int":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", value)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", value)
		}
		return f, nil
	case "list":
		return command.DecodeList(value)
	}
	return value, nil
}

// addNumber adds sign*delta to cur. An unset property counts as 0. Integers
// stay integers when delta is one.
func addNumber(cur any, delta string, sign float64) (any, error) {
	if cur == nil {
		cur = 0
	}
	if s, ok := cur.(string); ok {
		cur = eval.Coerce(s)
	}
	if d, err := strconv.Atoi(strings.TrimSpace(delta)); err == nil {
		if n, ok := cur.(int); ok {
			return n + int(sign)*d, nil
		}
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(delta), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", delta)
	}
	switch n := cur.(type) {
	case int:
		return float64(n) + sign*d, nil
	case float64:
		return n + sign*d, nil
	}
	return nil, fmt.Errorf("current value %v is not a number", cur)
}

// WritePropertiesToFile writes selected properties as Name=Value lines or YAML.
type WritePropertiesToFile struct {
	command.Base
}

func NewWritePropertiesToFile() command.Command {
	return &WritePropertiesToFile{Base: command.NewBase("WritePropertiesToFile",
		command.ParameterMetadata{Name: "OutputFile", Type: command.String, Required: true, Description: "File to write."},
		command.ParameterMetadata{Name: "IncludeProperties", Type: command.List, Description: "Property names or glob patterns; default all."},
		command.ParameterMetadata{Name: "WriteMode", Type: command.String, Default: "Overwrite", Choices: []string{"Overwrite", "Append"}},
		command.ParameterMetadata{Name: "FileFormat", Type: command.String, Default: "NameValue", Choices: []string{"NameValue", "YAML"}},
	)}
}

func (c *WritePropertiesToFile) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *WritePropertiesToFile) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	patterns, err := command.DecodeList(c.Expanded("IncludeProperties"))
	if err != nil {
		return err
	}
	selected := make(map[string]any)
	var names []string
	for _, name := range proc.PropertyNames() {
		if !matchAny(patterns, name) {
			continue
		}
		v, _ := proc.Property(name)
		selected[name] = v
		names = append(names, name)
	}

	var out []byte
	if strings.EqualFold(c.Value("FileFormat"), "YAML") {
		out, err = yaml.Marshal(selected)
		if err != nil {
			return fmt.Errorf("encode properties: %w", err)
		}
	} else {
		var b strings.Builder
		for _, name := range names {
			fmt.Fprintf(&b, "%s=%s\n", name, formatValue(selected[name]))
		}
		out = []byte(b.String())
	}

	f, err := createFile(c.ExpandedPath("OutputFile"), strings.EqualFold(c.Value("WriteMode"), "Append"))
	if err != nil {
		return err
	}
	if _, err := f.Write(out); err != nil {
		f.Close()
		return fmt.Errorf("write properties: %w", err)
	}
	return f.Close()
}

func matchAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok || p == name {
			return true
		}
	}
	return false
}

// formatValue renders a property for a Name=Value line: strings quoted,
// lists in the list encoding.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []string:
		return command.EncodeList(x)
	}
	return eval.Stringify(v)
}
