package controlflow

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/eval"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

func init() {
	command.Register("For", NewFor)
	command.Register("EndFor", NewEndFor)
	command.Register("If", NewIf)
	command.Register("EndIf", NewEndIf)
	command.Register("Exit", NewExit)
}

type forState int

const (
	uninitialized forState = iota
	iterating
)

// For repeats the commands up to the EndFor of the same name, setting
// IteratorProperty to each value of its source before every pass. The
// source is a numeric sequence, a list, or a table column.
type For struct {
	command.Base
	state   forState
	src     source
	current any
}

var forMeta = []command.ParameterMetadata{
	{Name: "Name", Type: command.String, Required: true, Description: "Loop name, matched by EndFor."},
	{Name: "IteratorProperty", Type: command.String, Description: "Property set to the current value. Defaults to Name."},
	{Name: "SequenceStart", Type: command.Float, Description: "First value of a numeric sequence."},
	{Name: "SequenceEnd", Type: command.Float, Description: "Last value of a numeric sequence (inclusive)."},
	{Name: "SequenceIncrement", Type: command.Float, Default: "1", Description: "Sequence step; may be negative."},
	{Name: "ListValues", Type: command.List, Description: "Explicit values, e.g. ['a','b']."},
	{Name: "TableID", Type: command.String, Description: "Table whose column supplies the values."},
	{Name: "TableColumn", Type: command.String, Description: "Column of TableID to iterate."},
}

func NewFor() command.Command {
	return &For{Base: command.NewBase("For", forMeta...)}
}

func (f *For) Kind() command.Kind { return command.KindFor }
func (f *For) BlockName() string  { return f.Parameters().Value("Name") }

// IteratorProperty is the property the loop sets.
func (f *For) IteratorProperty() string {
	if p := f.Parameters().Value("IteratorProperty"); p != "" {
		return p
	}
	return f.BlockName()
}

// Current is the value of the current iteration.
func (f *For) Current() any { return f.current }

func (f *For) ValidateParameters(params *command.Parameters) error {
	v := command.NewValidator(f, params).Standard()
	sources := 0
	hasStart, hasEnd := params.Has("SequenceStart"), params.Has("SequenceEnd")
	if hasStart || hasEnd {
		sources++
		if !hasStart || !hasEnd {
			v.Fail("SequenceStart and SequenceEnd must both be specified.", "Specify both sequence bounds.")
		}
	}
	if params.Has("ListValues") {
		sources++
	}
	hasTable, hasColumn := params.Has("TableID"), params.Has("TableColumn")
	if hasTable || hasColumn {
		sources++
		if !hasTable || !hasColumn {
			v.Fail("TableID and TableColumn must both be specified.", "Specify the table and the column to iterate.")
		}
	}
	switch {
	case sources == 0:
		v.Fail("No iteration values are specified.",
			"Specify SequenceStart/SequenceEnd, ListValues, or TableID/TableColumn.")
	case sources > 1:
		v.Fail("More than one iteration source is specified.",
			"Specify only one of SequenceStart/SequenceEnd, ListValues, or TableID/TableColumn.")
	}
	return v.Err()
}

// Next advances the loop. The first call after construction or Reset sets
// up the source. When the values are exhausted the loop resets and Next
// returns false.
func (f *For) Next(context.Context) (bool, error) {
	if f.state == uninitialized {
		src, err := f.newSource()
		if err != nil {
			return false, err
		}
		f.src = src
		f.state = iterating
	}
	v, ok := f.src.next()
	if !ok {
		f.Reset()
		return false, nil
	}
	f.current = v
	return true, nil
}

// Reset returns the loop to its uninitialized state.
func (f *For) Reset() {
	f.state = uninitialized
	f.src = nil
	f.current = nil
}

func (f *For) newSource() (source, error) {
	params := f.Parameters()
	switch {
	case params.Has("SequenceStart"):
		return newSequence(f.Expanded("SequenceStart"), f.Expanded("SequenceEnd"), f.Expanded("SequenceIncrement"))
	case params.Has("ListValues"):
		items, err := command.DecodeList(f.Expanded("ListValues"))
		if err != nil {
			return nil, err
		}
		return &values{items: items}, nil
	case params.Has("TableID"):
		proc := f.Processor()
		if proc == nil {
			return nil, fmt.Errorf("no processor to look up tables")
		}
		id := f.Expanded("TableID")
		t, ok := proc.Tables().Get(id)
		if !ok {
			return nil, fmt.Errorf("table %q does not exist", id)
		}
		col, err := t.ColumnValues(f.Expanded("TableColumn"))
		if err != nil {
			return nil, err
		}
		return &values{items: col}, nil
	}
	return nil, fmt.Errorf("no iteration values are specified")
}

// Execute sets the iterator property to the current value.
func (f *For) Execute(context.Context) error {
	if proc := f.Processor(); proc != nil && f.current != nil {
		proc.SetProperty(f.IteratorProperty(), f.current)
	}
	return nil
}

// If makes the commands up to the EndIf of the same name conditional.
// Condition is expanded and evaluated when the If executes; the result is
// kept until the EndIf.
type If struct {
	command.Base
	result bool
}

var ifMeta = []command.ParameterMetadata{
	{Name: "Name", Type: command.String, Required: true, Description: "Block name, matched by EndIf."},
	{Name: "Condition", Type: command.String, Required: true, Description: `Boolean expression, e.g. ${Count} > 2 or "${Name}" == "roads".`},
	{Name: "CompareAsStrings", Type: command.Bool, Default: "False", Description: "Evaluate Condition as left op right, comparing text."},
}

func NewIf() command.Command {
	return &If{Base: command.NewBase("If", ifMeta...)}
}

func (c *If) Kind() command.Kind { return command.KindIf }
func (c *If) BlockName() string  { return c.Parameters().Value("Name") }

// Result is the value of the last evaluation; false if it failed.
func (c *If) Result() bool { return c.result }

func (c *If) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

// Execute evaluates Condition.
func (c *If) Execute(context.Context) error {
	c.result = false
	cond := c.Expanded("Condition")
	asStrings, _ := command.ParseBool(c.Value("CompareAsStrings"))
	var (
		ok  bool
		err error
	)
	if asStrings {
		ok, err = eval.CompareStrings(cond)
	} else {
		ok, err = eval.Condition(cond, c.env())
	}
	if err != nil {
		return err
	}
	c.result = ok
	return nil
}

// env exposes the properties as expression variables; string values that
// parse as numbers or booleans are converted.
func (c *If) env() map[string]any {
	proc := c.Processor()
	if proc == nil {
		return nil
	}
	env := make(map[string]any)
	for _, name := range proc.PropertyNames() {
		v, _ := proc.Property(name)
		if s, ok := v.(string); ok {
			v = eval.Coerce(s)
		}
		env[name] = v
	}
	return env
}

type terminator struct {
	command.Base
	kind command.Kind
}

func (t *terminator) Kind() command.Kind { return t.kind }
func (t *terminator) BlockName() string  { return t.Parameters().Value("Name") }

func (t *terminator) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(t, params).Standard().Err()
}

func (t *terminator) Execute(context.Context) error {
	t.Status().SetIfUnknown(status.Run, status.Success)
	return nil
}

// EndFor closes the For of the same name.
type EndFor struct{ terminator }

func NewEndFor() command.Command {
	return &EndFor{terminator{
		Base: command.NewBase("EndFor", command.ParameterMetadata{Name: "Name", Type: command.String, Required: true}),
		kind: command.KindEndFor,
	}}
}

// EndIf closes the If of the same name.
type EndIf struct{ terminator }

func NewEndIf() command.Command {
	return &EndIf{terminator{
		Base: command.NewBase("EndIf", command.ParameterMetadata{Name: "Name", Type: command.String, Required: true}),
		kind: command.KindEndIf,
	}}
}

// Exit ends the run. Commands after it, including the rest of any open
// loop, are not processed.
type Exit struct{ command.Base }

func NewExit() command.Command {
	return &Exit{Base: command.NewBase("Exit")}
}

func (e *Exit) Kind() command.Kind { return command.KindExit }

func (e *Exit) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(e, params).Recognized().Err()
}

func (e *Exit) Execute(context.Context) error { return nil }

// Loop is the contract the execution loop needs from a For.
type Loop interface {
	command.Command
	Named
	Next(ctx context.Context) (bool, error)
	Reset()
}

// Conditional is the contract the execution loop needs from an If.
type Conditional interface {
	command.Command
	Named
	Result() bool
}

var (
	_ Loop        = (*For)(nil)
	_ Conditional = (*If)(nil)
)
