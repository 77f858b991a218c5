package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/controlflow"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Run executes cmds, or every loaded command when cmds is nil. Command
// failures are recorded on the commands and do not stop the run. The
// returned error is a *controlflow.StructureError for For/If blocks that
// cannot execute, or the context's error.
func (p *Processor) Run(ctx context.Context, cmds []command.Command) error {
	if cmds == nil {
		cmds = p.commands
	}
	start := time.Now()
	for _, c := range cmds {
		switch c.Kind() {
		case command.KindComment, command.KindBlockCommentStart, command.KindBlockCommentEnd:
			continue
		}
		c.Status().Clear(status.Run)
		if l, ok := c.(controlflow.Loop); ok {
			l.Reset()
		}
	}
	p.trace.EmitRunStart(p.file, len(cmds), nil)
	p.logger.Debug("run start", "command_file", p.file, "commands", len(cmds))

	err := p.execute(ctx, cmds)

	w := worst(cmds)
	if err != nil {
		w = status.Failure
		p.logger.Error("run aborted", "command_file", p.file, "error", err)
	}
	p.trace.EmitRunComplete(w.String(), time.Since(start), err)
	p.logger.Debug("run complete", "command_file", p.file, "worst_severity", w, "duration", time.Since(start))

	if p.session != nil {
		if werr := p.session.WriteFile(); werr != nil {
			p.logger.Warn("write regression report", "error", werr)
		}
	}
	return err
}

// execute is the interpreter loop. The cursor moves forward one command at
// a time; For, EndFor and Exit move it non-locally.
func (p *Processor) execute(ctx context.Context, cmds []command.Command) error {
	if err := controlflow.Check(cmds); err != nil {
		return err
	}

	var stack controlflow.Stack
	inComment := false
	cur := controlflow.NewCursor(len(cmds))
	for {
		i, ok := cur.Next()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c := cmds[i]

		switch c.Kind() {
		case command.KindBlockCommentStart:
			inComment = true
			continue
		case command.KindBlockCommentEnd:
			inComment = false
			continue
		}
		if inComment {
			continue
		}
		live := stack.Live()

		switch c.Kind() {
		case command.KindFor:
			loop, ok := c.(controlflow.Loop)
			if !ok {
				return fmt.Errorf("command %d: %s does not implement a loop", i+1, c.Name())
			}
			end, err := controlflow.FindEnd(cmds, i)
			if err != nil {
				return err
			}
			if !live {
				cur.ResumeAfter(end)
				continue
			}
			top, hasTop := stack.Top()
			entering := !hasTop || top.Kind != controlflow.FrameFor || top.Index != i
			if entering && !p.validate(i, c) {
				loop.Reset()
				cur.ResumeAfter(end)
				continue
			}
			more, err := loop.Next(ctx)
			if err != nil {
				c.Status().AddUnique(status.Run, status.Record{
					Severity:       status.Failure,
					Problem:        fmt.Sprintf("Cannot iterate %s: %v", loop.BlockName(), err),
					Recommendation: "Check the iteration parameters.",
				})
				p.logger.Warn("for loop failed", "index", i, "loop", loop.BlockName(), "error", err)
				loop.Reset()
				more = false
			}
			if !more {
				if !entering {
					stack.Pop()
				}
				c.Status().SetIfUnknown(status.Run, status.Success)
				cur.ResumeAfter(end)
				continue
			}
			if entering {
				stack.Push(controlflow.Frame{Name: loop.BlockName(), Kind: controlflow.FrameFor, True: true, Index: i})
			}
			p.runCommand(ctx, i, c)
			if f, ok := c.(*controlflow.For); ok {
				p.trace.EmitForIteration(i, f.BlockName(), f.IteratorProperty(), f.Current())
			}

		case command.KindEndFor:
			if !live {
				continue
			}
			top, ok := stack.Top()
			name := controlflow.BlockName(c)
			if !ok || top.Kind != controlflow.FrameFor || top.Name != name {
				return &controlflow.StructureError{Index: i, Line: c.String(), Message: fmt.Sprintf("EndFor %q does not close the innermost open block", name)}
			}
			p.runCommand(ctx, i, c)
			cur.Restart(top.Index)

		case command.KindIf:
			name := controlflow.BlockName(c)
			if !live || !p.validate(i, c) {
				stack.Push(controlflow.Frame{Name: name, Kind: controlflow.FrameIf, Index: i})
				continue
			}
			p.runCommand(ctx, i, c)
			result := false
			if cond, ok := c.(controlflow.Conditional); ok {
				result = cond.Result()
			}
			stack.Push(controlflow.Frame{Name: name, Kind: controlflow.FrameIf, True: result, Index: i})
			p.trace.EmitIfEvaluated(i, name, c.Parameters().Value("Condition"), result)

		case command.KindEndIf:
			top, ok := stack.Top()
			name := controlflow.BlockName(c)
			if !ok || top.Kind != controlflow.FrameIf || top.Name != name {
				return &controlflow.StructureError{Index: i, Line: c.String(), Message: fmt.Sprintf("EndIf %q does not close the innermost open block", name)}
			}
			stack.Pop()
			if stack.Live() {
				p.runCommand(ctx, i, c)
			}

		case command.KindExit:
			if !live {
				continue
			}
			p.runCommand(ctx, i, c)
			p.logger.Info("exit", "index", i, "command_file", p.file)
			cur.Stop()

		default:
			if !live || !p.validate(i, c) {
				continue
			}
			if p.runCommand(ctx, i, c) && p.fatal(c) {
				p.logger.Warn("stopping after failure", "index", i, "command", c.Name())
				cur.Stop()
			}
		}
	}
}

// validate re-validates the parameters of c before it runs; editors may have
// changed them since load.
func (p *Processor) validate(i int, c command.Command) bool {
	if err := c.ValidateParameters(c.Parameters()); err != nil {
		p.logger.Warn("command not run", "index", i, "command", c.Name(), "error", err)
		return false
	}
	return true
}

func (p *Processor) fatal(c command.Command) bool {
	if f, ok := c.(command.Fataler); ok && f.FatalOnError() {
		return true
	}
	return p.cfg.StopOnFailure
}

// runCommand executes c and reports whether its Run phase is a Failure.
func (p *Processor) runCommand(ctx context.Context, i int, c command.Command) bool {
	start := time.Now()
	p.trace.EmitCommandStart(i, c.Name())
	err := safeExecute(ctx, c)
	st := c.Status()
	if err != nil {
		st.AddRecord(status.Run, status.Record{
			Severity:       status.Failure,
			Problem:        err.Error(),
			Recommendation: "Check the log for details.",
		})
		p.logger.Warn("command failed", "index", i, "command", c.Name(), "error", err)
	}
	st.SetIfUnknown(status.Run, status.Success)
	p.trace.EmitCommandComplete(i, c.Name(), st.Severity(status.Run).String(), time.Since(start), err)
	return st.Severity(status.Run) >= status.Failure
}

func safeExecute(ctx context.Context, c command.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", c.Name(), r)
		}
	}()
	return c.Execute(ctx)
}

// Discover runs the discovery phase: commands implementing
// command.Discoverer publish their outputs without running.
func (p *Processor) Discover(ctx context.Context) {
	for i, c := range p.commands {
		st := c.Status()
		st.Clear(status.Discovery)
		if d, ok := c.(command.Discoverer); ok {
			if err := safeDiscover(ctx, d); err != nil {
				st.Add(status.Discovery, status.Failure, err.Error(), "Check the command parameters.")
				p.logger.Warn("discovery failed", "index", i, "command", c.Name(), "error", err)
			}
		}
		st.SetIfUnknown(status.Discovery, status.Success)
	}
}

func safeDiscover(ctx context.Context, d command.Discoverer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("discovery panicked: %v", r)
		}
	}()
	return d.Discover(ctx)
}

// RunNestedFile loads and runs path in a fresh child processor that shares
// only the factory, logger, trace and options. A relative path is resolved
// against WorkingDir. expected is status.Unknown when the caller gave none;
// the file's #@expectedStatus annotation then applies.
func (p *Processor) RunNestedFile(ctx context.Context, path string, expected status.Severity) (*command.NestedResult, error) {
	path = command.ResolvePath(p, path)
	res := &command.NestedResult{Path: path, Expected: expected, Enabled: true}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrNestedFileNotFound, path)
		}
		return res, fmt.Errorf("stat %s: %w", path, err)
	}

	child := New(Config{
		Factory:         p.cfg.Factory,
		Logger:          p.logger.With("command_file", path),
		Trace:           p.trace,
		Output:          p.cfg.Output,
		StopOnFailure:   p.cfg.StopOnFailure,
		CollisionPolicy: p.cfg.CollisionPolicy,
	})
	if err := child.LoadFile(path); err != nil {
		return res, err
	}

	ann := child.Annotations()
	if res.Expected == status.Unknown {
		if v, ok := ann["expectedstatus"]; ok {
			sev, err := status.ParseSeverity(v)
			if err != nil {
				return res, fmt.Errorf("%s: #@expectedStatus: %w", path, err)
			}
			res.Expected = sev
		}
	}
	if v, ok := ann["enabled"]; ok {
		if enabled, err := command.ParseBool(v); err == nil && !enabled {
			res.Enabled = false
			p.logger.Info("nested command file disabled", "path", path)
			return res, nil
		}
	}

	start := time.Now()
	runErr := child.Run(ctx, nil)
	res.Duration = time.Since(start)
	res.Worst = child.WorstSeverity()
	if runErr != nil {
		var se *controlflow.StructureError
		if !errors.As(runErr, &se) {
			return res, runErr
		}
		res.Fatal = runErr
		res.Worst = status.Failure
	}
	res.Records = child.attributedRecords()

	expectedName := ""
	if res.Expected != status.Unknown {
		expectedName = res.Expected.String()
	}
	p.trace.EmitNestedRun(path, res.Worst.String(), expectedName, res.Duration)
	p.logger.Info("nested run complete", "path", path, "worst_severity", res.Worst, "expected", expectedName)
	return res, nil
}

// attributedRecords returns every record with Source naming the command that
// produced it. Records already attributed by a deeper nesting keep their source.
func (p *Processor) attributedRecords() []status.Record {
	base := filepath.Base(p.file)
	var out []status.Record
	for i, c := range p.commands {
		src := fmt.Sprintf("%s:%d: %s", base, i+1, strings.TrimSpace(c.String()))
		for _, rec := range c.Status().All() {
			if rec.Source == "" {
				rec.Source = src
			}
			out = append(out, rec)
		}
	}
	return out
}
