// Package processor loads command files and runs them: it owns the command
// list, the property table and the layer and table registries, and drives
// the execution loop including For/If blocks and nested command files.
package processor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/controlflow"
	"github.com/ormasoftchile/geoprocessor/pkg/data"
	"github.com/ormasoftchile/geoprocessor/pkg/eval"
	"github.com/ormasoftchile/geoprocessor/pkg/registry"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
	"github.com/ormasoftchile/geoprocessor/pkg/trace"
)

// Properties set by the processor.
const (
	WorkingDirProperty  = command.WorkingDirProperty
	CommandFileProperty = "CommandFile"
)

// ErrNestedFileNotFound is returned by RunNestedFile and LoadFile when the
// file does not exist.
var ErrNestedFileNotFound = command.ErrNestedFileNotFound

// Config configures a processor.
type Config struct {
	// Factory selects command types; nil uses command.Default.
	Factory *command.Factory
	Logger  *slog.Logger
	Trace   *trace.Writer // nil disables tracing
	// Output receives Message text and similar; defaults to os.Stdout.
	Output io.Writer
	// StopOnFailure ends the run after the first command whose Run phase
	// is a Failure.
	StopOnFailure bool
	// CollisionPolicy is used by commands whose If...Exists parameter is
	// omitted; defaults to registry.Replace.
	CollisionPolicy registry.Policy
	// Properties seed the property table. A WorkingDir here overrides the
	// command file location.
	Properties map[string]any
}

// Processor runs one command list. It is not safe for concurrent use.
type Processor struct {
	cfg      Config
	logger   *slog.Logger
	trace    *trace.Writer
	commands []command.Command
	props    map[string]any
	layers   *registry.Registry[*data.GeoLayer]
	tables   *registry.Registry[*data.Table]
	session  *report.Session
	file     string
}

// New creates a processor. WorkingDir is always set: from cfg.Properties,
// else the current directory until a command file is loaded.
func New(cfg Config) *Processor {
	if cfg.Factory == nil {
		cfg.Factory = command.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.CollisionPolicy == "" {
		cfg.CollisionPolicy = registry.Replace
	}
	p := &Processor{
		cfg:    cfg,
		logger: cfg.Logger,
		trace:  cfg.Trace,
		props:  make(map[string]any),
		layers: registry.New[*data.GeoLayer]("GeoLayer"),
		tables: registry.New[*data.Table]("Table"),
	}
	for k, v := range cfg.Properties {
		p.props[k] = v
	}
	if _, ok := p.props[WorkingDirProperty]; !ok {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		p.props[WorkingDirProperty] = wd
	}
	return p
}

// Load appends one command per line. Lines that cannot be parsed become
// Unknown commands that keep the original text.
func (p *Processor) Load(lines []string) {
	for _, line := range lines {
		p.Append(line)
	}
}

// Append creates, initializes and appends the command for line.
func (p *Processor) Append(line string) command.Command {
	c := p.newCommand(line)
	p.commands = append(p.commands, c)
	return c
}

func (p *Processor) newCommand(line string) command.Command {
	c := p.cfg.Factory.New(line)
	err := command.Init(c, line, p, true)
	var se *command.SyntaxError
	switch {
	case errors.As(err, &se):
		p.logger.Warn("command syntax error", "line", len(p.commands)+1, "error", err)
		u := command.NewUnknown(c.Name(), err.Error(), status.Failure)
		_ = u.Initialize(line, p, true)
		return u
	case err != nil:
		p.logger.Warn("invalid command parameters", "line", len(p.commands)+1, "command", c.Name(), "error", err)
	case c.Kind() == command.KindUnknown:
		if u, ok := c.(*command.Unknown); ok {
			p.logger.Warn("unknown command", "line", len(p.commands)+1, "reason", u.Reason())
		}
	}
	return c
}

// LoadReader loads lines from r.
func (p *Processor) LoadReader(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read command file: %w", err)
	}
	p.Load(lines)
	return nil
}

// LoadFile loads path. WorkingDir is set to the file's directory unless it
// was given in Config.Properties.
func (p *Processor) LoadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNestedFileNotFound, path)
		}
		return fmt.Errorf("open command file: %w", err)
	}
	defer f.Close()

	p.file = abs
	p.props[CommandFileProperty] = abs
	if _, ok := p.cfg.Properties[WorkingDirProperty]; !ok {
		p.props[WorkingDirProperty] = filepath.Dir(abs)
	}
	return p.LoadReader(f)
}

// File returns the absolute path of the loaded command file, if any.
func (p *Processor) File() string { return p.file }

// Commands returns the loaded commands.
func (p *Processor) Commands() []command.Command {
	out := make([]command.Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Clear removes all commands. Properties and registries are kept.
func (p *Processor) Clear() { p.commands = nil }

// Truncate keeps the first n commands.
func (p *Processor) Truncate(n int) {
	if n >= 0 && n < len(p.commands) {
		p.commands = p.commands[:n]
	}
}

func (p *Processor) Logger() *slog.Logger { return p.logger }
func (p *Processor) Output() io.Writer    { return p.cfg.Output }

// Property returns a property value.
func (p *Processor) Property(name string) (any, bool) {
	v, ok := p.props[name]
	return v, ok
}

// PropertyOr returns a property value, or def when it is not set.
func (p *Processor) PropertyOr(name string, def any) any {
	if v, ok := p.props[name]; ok {
		return v
	}
	return def
}

func (p *Processor) SetProperty(name string, value any) { p.props[name] = value }

// RemoveProperty deletes a property. WorkingDir cannot be removed.
func (p *Processor) RemoveProperty(name string) {
	if name == WorkingDirProperty {
		return
	}
	delete(p.props, name)
}

// PropertyNames returns the property names, sorted.
func (p *Processor) PropertyNames() []string {
	names := make([]string, 0, len(p.props))
	for k := range p.props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Properties returns a copy of the property table.
func (p *Processor) Properties() map[string]any {
	out := make(map[string]any, len(p.props))
	for k, v := range p.props {
		out[k] = v
	}
	return out
}

// Expand resolves ${Name} references against the property table.
func (p *Processor) Expand(s string) string {
	return eval.Expand(s, func(name string) (string, bool) {
		v, ok := p.props[name]
		if !ok {
			return "", false
		}
		return eval.Stringify(v), true
	})
}

func (p *Processor) Layers() *registry.Registry[*data.GeoLayer] { return p.layers }
func (p *Processor) Tables() *registry.Registry[*data.Table]    { return p.tables }
func (p *Processor) CollisionPolicy() registry.Policy           { return p.cfg.CollisionPolicy }

func (p *Processor) ReportSession() *report.Session     { return p.session }
func (p *Processor) SetReportSession(s *report.Session) { p.session = s }

// WorstSeverity returns the maximum severity over every phase of every command.
func (p *Processor) WorstSeverity() status.Severity {
	return worst(p.commands)
}

func worst(cmds []command.Command) status.Severity {
	w := status.Unknown
	for _, c := range cmds {
		w = status.Max(w, c.Status().Worst())
	}
	return w
}

// Annotations returns the "#@key value" comments of the command list, keyed
// by lower-case key. The first occurrence of a key wins.
func (p *Processor) Annotations() map[string]string {
	out := make(map[string]string)
	for _, c := range p.commands {
		cm, ok := c.(*command.Comment)
		if !ok {
			continue
		}
		if k, v, ok := cm.Annotation(); ok {
			k = strings.ToLower(k)
			if _, dup := out[k]; !dup {
				out[k] = v
			}
		}
	}
	return out
}

// Problem is a load-time problem of one command.
type Problem struct {
	Line    int           `json:"line"`
	Command string        `json:"command"`
	Record  status.Record `json:"record"`
}

// Check validates the loaded commands without running them. It returns the
// Initialization records at or above minSev and the block structure error,
// if any.
func (p *Processor) Check(minSev status.Severity) ([]Problem, error) {
	var out []Problem
	for i, c := range p.commands {
		for _, rec := range c.Status().Records(status.Initialization) {
			if rec.Severity >= minSev {
				out = append(out, Problem{Line: i + 1, Command: strings.TrimSpace(c.String()), Record: rec})
			}
		}
	}
	return out, controlflow.Check(p.commands)
}

// Rows returns one summary row per command.
func (p *Processor) Rows() []report.CommandRow {
	return command.SummaryRows(p.commands)
}

// Format returns every command re-serialized, one per line.
func (p *Processor) Format(all bool) []string {
	out := make([]string, len(p.commands))
	for i, c := range p.commands {
		out[i] = c.Format(all)
	}
	return out
}

var _ command.Processor = (*Processor)(nil)
