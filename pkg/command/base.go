package command

import (
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// WorkingDirProperty names the property every processor keeps set; relative
// paths in command parameters are resolved against it.
const WorkingDirProperty = "WorkingDir"

// Base implements the shared parts of Command. Embed it and supply
// ValidateParameters and Execute.
type Base struct {
	name   string
	meta   []ParameterMetadata
	raw    string
	indent string
	params *Parameters
	status *status.Status
	proc   Processor
	// malformed is set when parsing produced warnings; Format then
	// returns the raw line so no text is lost.
	malformed bool
}

// NewBase creates a Base for a command type with the given parameter metadata.
func NewBase(name string, meta ...ParameterMetadata) Base {
	return Base{
		name:   name,
		meta:   meta,
		params: NewParameters(),
		status: status.New(),
	}
}

func (b *Base) Name() string                  { return b.name }
func (b *Base) Kind() Kind                    { return KindCommand }
func (b *Base) Metadata() []ParameterMetadata { return b.meta }
func (b *Base) Parameters() *Parameters       { return b.params }
func (b *Base) Status() *status.Status        { return b.status }
func (b *Base) Processor() Processor          { return b.proc }
func (b *Base) String() string                { return b.raw }

// Initialize records line and, when fullInit is set, parses its parameters.
// Token-level problems become Initialization warnings; a missing or malformed
// parameter block is a *SyntaxError.
func (b *Base) Initialize(line string, proc Processor, fullInit bool) error {
	b.raw = line
	b.indent = Indent(line)
	b.proc = proc
	if !fullInit {
		return nil
	}
	params, warnings, err := ParseParameters(line)
	if err != nil {
		b.status.Add(status.Initialization, status.Failure, err.Error(),
			"Correct the command syntax: Name(Param=\"Value\",...).")
		return err
	}
	for _, w := range warnings {
		b.status.AddUnique(status.Initialization, status.Record{
			Severity:       status.Warning,
			Problem:        w.Error(),
			Recommendation: "Check quoting and separators in the parameter list.",
		})
	}
	b.params = params
	b.malformed = len(warnings) > 0
	return nil
}

// Value returns the raw value of a parameter, falling back to its metadata default.
func (b *Base) Value(name string) string {
	if v, ok := b.params.Get(name); ok {
		return v
	}
	if m, ok := Lookup(b.meta, name); ok {
		return m.Default
	}
	return ""
}

// Expanded returns Value(name) with ${Property} references resolved.
func (b *Base) Expanded(name string) string {
	v := b.Value(name)
	if b.proc == nil {
		return v
	}
	return b.proc.Expand(v)
}

// ExpandedPath returns Expanded(name) resolved against the WorkingDir property.
func (b *Base) ExpandedPath(name string) string {
	return ResolvePath(b.proc, b.Expanded(name))
}

// Format re-serializes the command in metadata order, followed by any
// parameters not declared in metadata. With all set, unset parameters are
// written with their default. A line that did not parse cleanly is returned
// verbatim.
func (b *Base) Format(all bool) string {
	if b.malformed {
		return b.raw
	}
	var parts []string
	seen := make(map[string]bool)
	for _, m := range b.meta {
		seen[strings.ToLower(m.Name)] = true
		v, ok := b.params.Get(m.Name)
		if !ok {
			if !all {
				continue
			}
			v = m.Default
		}
		parts = append(parts, m.Name+`="`+v+`"`)
	}
	for _, n := range b.params.Names() {
		if seen[strings.ToLower(n)] {
			continue
		}
		parts = append(parts, n+`="`+b.params.Value(n)+`"`)
	}
	return b.indent + b.name + "(" + strings.Join(parts, ",") + ")"
}

// ResolvePath resolves p against the processor's WorkingDir. Absolute paths and
// a nil processor return p cleaned.
func ResolvePath(proc Processor, p string) string {
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) || proc == nil {
		return filepath.Clean(p)
	}
	wd, _ := proc.PropertyOr(WorkingDirProperty, "").(string)
	if wd == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(wd, p)
}
