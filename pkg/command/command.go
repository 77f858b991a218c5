// Package command defines the uniform contract every workflow command implements,
// the command-string parser, parameter metadata and validation, and the factory
// that maps command names to implementations.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ormasoftchile/geoprocessor/pkg/data"
	"github.com/ormasoftchile/geoprocessor/pkg/registry"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Kind classifies a command for the processor's execution loop.
type Kind int

const (
	KindCommand Kind = iota
	KindBlank
	KindComment
	KindBlockCommentStart
	KindBlockCommentEnd
	KindUnknown
	KindFor
	KindEndFor
	KindIf
	KindEndIf
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindBlockCommentStart:
		return "block-comment-start"
	case KindBlockCommentEnd:
		return "block-comment-end"
	case KindUnknown:
		return "unknown"
	case KindFor:
		return "for"
	case KindEndFor:
		return "end-for"
	case KindIf:
		return "if"
	case KindEndIf:
		return "end-if"
	case KindExit:
		return "exit"
	}
	return "invalid"
}

// Command is implemented by every workflow operation. Concrete types usually
// embed Base, which supplies everything except ValidateParameters and Execute.
type Command interface {
	Name() string
	Kind() Kind
	Metadata() []ParameterMetadata
	// Initialize records the raw line and, when fullInit is set, parses its
	// parameters. A *SyntaxError means the line cannot be treated as this command.
	Initialize(line string, proc Processor, fullInit bool) error
	// ValidateParameters logs problems to the Initialization phase and returns a
	// *ValidationError when any is a Failure.
	ValidateParameters(params *Parameters) error
	// Execute performs the operation. Recoverable problems are logged to the Run
	// phase; a returned error is converted to a Run-phase Failure by the processor.
	Execute(ctx context.Context) error
	// Format re-serializes the command. Unset optional parameters are omitted
	// unless all is true.
	Format(all bool) string
	Parameters() *Parameters
	Status() *status.Status
	// String returns the line the command was initialized from.
	String() string
}

// Discoverer is implemented by commands that can publish their outputs
// (property names, entity IDs) without running.
type Discoverer interface {
	Discover(ctx context.Context) error
}

// Fataler is implemented by commands whose Run-phase Failure stops the run.
type Fataler interface {
	FatalOnError() bool
}

// Processor is the view of the processor available to commands.
type Processor interface {
	// Property returns a property value.
	Property(name string) (any, bool)
	// PropertyOr returns a property value or def when absent.
	PropertyOr(name string, def any) any
	SetProperty(name string, value any)
	RemoveProperty(name string)
	PropertyNames() []string
	// Expand resolves ${Name} references against the property table.
	Expand(s string) string

	Layers() *registry.Registry[*data.GeoLayer]
	Tables() *registry.Registry[*data.Table]
	// CollisionPolicy is the policy used when an If...Exists parameter is omitted.
	CollisionPolicy() registry.Policy

	// RunNestedFile loads and runs path in a fresh child processor. expected is
	// status.Unknown when the caller supplied no expected status.
	RunNestedFile(ctx context.Context, path string, expected status.Severity) (*NestedResult, error)

	// ReportSession returns the regression report attached to this run, or nil.
	ReportSession() *report.Session
	SetReportSession(s *report.Session)

	// Commands returns the loaded command list.
	Commands() []Command
	Logger() *slog.Logger
	// Output receives user-facing text such as Message output.
	Output() io.Writer
}

// ErrNestedFileNotFound is returned by RunNestedFile when the file does not exist.
var ErrNestedFileNotFound = errors.New("command file not found")

// NestedResult summarizes a child processor run.
type NestedResult struct {
	Path string
	// Worst is the maximum severity over all child commands and phases.
	Worst status.Severity
	// Expected is the expected status in effect: the caller's, else the file's
	// #@expectedStatus annotation, else status.Unknown.
	Expected status.Severity
	// Enabled is false when the file carries #@enabled False; the file is not run.
	Enabled bool
	// Records holds the child's records, each attributed to the child command
	// that produced it via Record.Source.
	Records  []status.Record
	Duration time.Duration
	// Fatal is a structural error that aborted the child run.
	Fatal error
}

// ApplyTo folds the result into the Run phase of st, the status of the
// command that ran the file. With an expected status the record is Success
// exactly when the child's worst severity equals it, otherwise Failure.
// Without one, the child's records are appended and the phase takes the
// child's worst severity.
func (r *NestedResult) ApplyTo(st *status.Status) {
	switch {
	case !r.Enabled:
		st.Add(status.Run, status.Info, fmt.Sprintf("%s is disabled and was not run.", r.Path), "")
		st.Raise(status.Run, status.Success)
	case r.Expected != status.Unknown:
		if r.Worst == r.Expected {
			st.Add(status.Run, status.Success,
				fmt.Sprintf("%s completed with expected status %s.", r.Path, r.Expected), "")
			return
		}
		problem := fmt.Sprintf("%s completed with status %s, expected %s.", r.Path, r.Worst, r.Expected)
		if r.Fatal != nil {
			problem += " " + r.Fatal.Error()
		}
		st.Add(status.Run, status.Failure, problem, "Check the log of the command file.")
	default:
		for _, rec := range r.Records {
			st.AddRecord(status.Run, rec)
		}
		if r.Fatal != nil {
			st.Add(status.Run, status.Failure, r.Fatal.Error(), "Fix the For/If structure of the command file.")
		}
		st.Raise(status.Run, r.Worst)
	}
}

// Init initializes c from line and, on full initialization, validates its parameters.
func Init(c Command, line string, proc Processor, fullInit bool) error {
	if err := c.Initialize(line, proc, fullInit); err != nil {
		return err
	}
	if !fullInit {
		return nil
	}
	return c.ValidateParameters(c.Parameters())
}

// SummaryRows returns one report row per command.
func SummaryRows(cmds []Command) []report.CommandRow {
	rows := make([]report.CommandRow, len(cmds))
	for i, c := range cmds {
		st := c.Status()
		rows[i] = report.CommandRow{
			Index:   i,
			Command: strings.TrimSpace(c.String()),
			Records: st.All(),
		}
		for _, ph := range status.Phases {
			rows[i].Status[ph] = st.Severity(ph)
		}
	}
	return rows
}
