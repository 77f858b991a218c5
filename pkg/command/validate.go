package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Validator accumulates parameter problems for one command. Every problem is
// logged to the command's Initialization phase as it is found; identical
// records are logged once, so validating again before each execution does not
// grow the log.
//
//	v := command.NewValidator(c, params)
//	v.Standard()
//	if v.Value("Mode") == "x" && !params.Has("Other") {
//		v.Fail("Other is required when Mode is x.", "Specify Other.")
//	}
//	return v.Err()
type Validator struct {
	cmd      Command
	params   *Parameters
	problems []string
}

// NewValidator starts validation of params for c.
func NewValidator(c Command, params *Parameters) *Validator {
	return &Validator{cmd: c, params: params}
}

// Value returns the raw value of name, or its metadata default.
func (v *Validator) Value(name string) string {
	if val, ok := v.params.Get(name); ok {
		return val
	}
	if m, ok := Lookup(v.cmd.Metadata(), name); ok {
		return m.Default
	}
	return ""
}

// Fail records a Failure.
func (v *Validator) Fail(problem, recommendation string) {
	v.problems = append(v.problems, problem)
	v.log(status.Failure, problem, recommendation)
}

// Warn records a Warning. Warnings do not make Err non-nil.
func (v *Validator) Warn(problem, recommendation string) {
	v.log(status.Warning, problem, recommendation)
}

func (v *Validator) log(sev status.Severity, problem, recommendation string) {
	v.cmd.Status().AddUnique(status.Initialization, status.Record{
		Severity:       sev,
		Problem:        problem,
		Recommendation: recommendation,
	})
}

// Recognized warns about parameter names absent from the command's metadata.
// Unrecognized parameters are kept so the line round-trips.
func (v *Validator) Recognized() *Validator {
	meta := v.cmd.Metadata()
	for _, n := range v.params.Names() {
		if _, ok := Lookup(meta, n); !ok {
			v.Warn(fmt.Sprintf("Unrecognized parameter %q for %s.", n, v.cmd.Name()),
				"Remove the parameter or check its spelling.")
		}
	}
	return v
}

// Required fails for each name that is absent or empty. With no names, the
// Required flags in metadata are used.
func (v *Validator) Required(names ...string) *Validator {
	if len(names) == 0 {
		for _, m := range v.cmd.Metadata() {
			if m.Required {
				names = append(names, m.Name)
			}
		}
	}
	for _, n := range names {
		if strings.TrimSpace(v.params.Value(n)) == "" {
			v.Fail(fmt.Sprintf("The %s parameter must be specified.", n),
				fmt.Sprintf("Specify the %s parameter.", n))
		}
	}
	return v
}

// Choices fails when name is set to a value outside choices (compared
// case-insensitively). With no choices, the metadata choices are used.
// Values containing a property reference are checked at run time only.
func (v *Validator) Choices(name string, choices ...string) *Validator {
	if len(choices) == 0 {
		if m, ok := Lookup(v.cmd.Metadata(), name); ok {
			choices = m.Choices
		}
	}
	val, ok := v.params.Get(name)
	if !ok || val == "" || len(choices) == 0 || strings.Contains(val, "${") {
		return v
	}
	for _, c := range choices {
		if strings.EqualFold(c, val) {
			return v
		}
	}
	v.Fail(fmt.Sprintf("%s=%q is invalid.", name, val),
		fmt.Sprintf("Specify %s as one of: %s.", name, strings.Join(choices, ", ")))
	return v
}

// Types checks every set parameter against its declared type.
func (v *Validator) Types() *Validator {
	for _, m := range v.cmd.Metadata() {
		val, ok := v.params.Get(m.Name)
		if !ok || val == "" || strings.Contains(val, "${") {
			continue
		}
		if err := CheckType(m.Type, val); err != nil {
			v.Fail(fmt.Sprintf("%s=%q: %v.", m.Name, val, err),
				fmt.Sprintf("Specify %s as a valid %s value.", m.Name, m.Type))
		}
	}
	return v
}

// Standard runs Recognized, Required, Types and the metadata Choices checks.
func (v *Validator) Standard() *Validator {
	v.Recognized().Required().Types()
	for _, m := range v.cmd.Metadata() {
		if len(m.Choices) > 0 {
			v.Choices(m.Name)
		}
	}
	return v
}

// Err returns a *ValidationError listing this pass's failures, or nil after
// promoting an Unknown Initialization phase to Success.
func (v *Validator) Err() error {
	if len(v.problems) > 0 {
		return &ValidationError{Command: v.cmd.Name(), Problems: v.problems}
	}
	v.cmd.Status().SetIfUnknown(status.Initialization, status.Success)
	return nil
}

// CheckType reports whether value is valid for t.
func CheckType(t Type, value string) error {
	switch t {
	case Bool:
		if _, err := ParseBool(value); err != nil {
			return err
		}
	case Int:
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("not an integer")
		}
	case Float:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("not a number")
		}
	case List:
		if _, err := DecodeList(value); err != nil {
			return err
		}
	case Dict:
		if _, err := DecodeDict(value); err != nil {
			return err
		}
	}
	return nil
}

// ParseBool accepts True/False in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not True or False")
}
