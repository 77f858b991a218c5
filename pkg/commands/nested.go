package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// RunCommands runs another command file in a child processor. With
// ExpectedStatus (or a #@expectedStatus annotation in the file) the command
// succeeds only when the file's worst status matches; otherwise it takes
// on the file's records and worst status. When a regression report is
// active the result is added to it.
type RunCommands struct {
	command.Base
}

func NewRunCommands() command.Command {
	return &RunCommands{Base: command.NewBase("RunCommands",
		command.ParameterMetadata{Name: "CommandFile", Type: command.String, Required: true, Description: "Command file to run, relative to WorkingDir."},
		command.ParameterMetadata{Name: "ExpectedStatus", Type: command.String,
			Choices: []string{"Info", "Success", "Warning", "Failure"}, Description: "Worst status the file is expected to finish with."},
	)}
}

func (c *RunCommands) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *RunCommands) Execute(ctx context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	expected := status.Unknown
	if s := c.Expanded("ExpectedStatus"); s != "" {
		if expected, err = status.ParseSeverity(s); err != nil {
			return err
		}
	}

	file := c.ExpandedPath("CommandFile")
	res, err := proc.RunNestedFile(ctx, file, expected)
	session := proc.ReportSession()
	if err != nil {
		rec := "Check the log for details."
		if errors.Is(err, command.ErrNestedFileNotFound) {
			rec = "Confirm that the command file exists."
		}
		c.Status().Add(status.Run, status.Failure, fmt.Sprintf("Cannot run %s: %v", file, err), rec)
		if session != nil {
			session.Add(report.Result{Path: file, Outcome: report.Failed, Expected: expected, Actual: status.Failure, Error: err.Error()})
		}
		return nil
	}

	res.ApplyTo(c.Status())
	if session != nil {
		r := report.Result{
			Path:       res.Path,
			Outcome:    report.Evaluate(res.Enabled, res.Expected, res.Worst),
			Expected:   res.Expected,
			Actual:     res.Worst,
			DurationMs: res.Duration.Milliseconds(),
		}
		if res.Fatal != nil {
			r.Error = res.Fatal.Error()
		}
		session.Add(r)
	}
	return nil
}

// StartRegressionTestResultsReport attaches a new report session to the
// processor. Each later RunCommands adds its result; the report is written
// when the run completes.
type StartRegressionTestResultsReport struct {
	command.Base
}

func NewStartRegressionTestResultsReport() command.Command {
	return &StartRegressionTestResultsReport{Base: command.NewBase("StartRegressionTestResultsReport",
		command.ParameterMetadata{Name: "OutputFile", Type: command.String, Required: true, Description: "Report file; .json writes JSON, anything else text."},
	)}
}

func (c *StartRegressionTestResultsReport) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *StartRegressionTestResultsReport) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	proc.SetReportSession(report.NewSession(c.ExpandedPath("OutputFile")))
	return nil
}

// WriteCommandSummaryToFile writes the status of every loaded command.
type WriteCommandSummaryToFile struct {
	command.Base
}

func NewWriteCommandSummaryToFile() command.Command {
	return &WriteCommandSummaryToFile{Base: command.NewBase("WriteCommandSummaryToFile",
		command.ParameterMetadata{Name: "OutputFile", Type: command.String, Required: true, Description: "File to write."},
		command.ParameterMetadata{Name: "MinimumStatus", Type: command.String,
			Choices: []string{"Info", "Success", "Warning", "Failure"}, Description: "Only list commands at or above this status, with their messages."},
	)}
}

func (c *WriteCommandSummaryToFile) ValidateParameters(params *command.Parameters) error {
	return command.NewValidator(c, params).Standard().Err()
}

func (c *WriteCommandSummaryToFile) Execute(context.Context) error {
	proc, err := procOf(&c.Base)
	if err != nil {
		return err
	}
	minSev := status.Unknown
	if s := c.Expanded("MinimumStatus"); s != "" {
		if minSev, err = status.ParseSeverity(s); err != nil {
			return err
		}
	}
	f, err := createFile(c.ExpandedPath("OutputFile"), false)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(f, command.SummaryRows(proc.Commands()), minSev, false); err != nil {
		f.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	return f.Close()
}
