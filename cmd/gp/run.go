package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// --- run ---

var (
	runSummary string
	runPlain   bool
)

var runCmd = &cobra.Command{
	Use:   "run <file.gp>",
	Short: "Run a command file",
	Long:  "Run a command file and print the commands that finished with a warning or failure. Exits 1 when any command failed and 2 when a For/If block cannot run.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSummary, "summary", "Warning", "Summarize commands at this status or worse: Unknown lists all")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Do not color the summary")
}

func runRun(cmd *cobra.Command, args []string) error {
	minSev, err := status.ParseSeverity(runSummary)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cfg, args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()
	return runProcessor(cmd.Context(), s.proc, cmd.OutOrStdout(), minSev, !runPlain)
}

// runProcessor runs every loaded command and writes the summary to w.
func runProcessor(ctx context.Context, p *processor.Processor, w io.Writer, minSev status.Severity, styled bool) error {
	start := time.Now()
	if err := p.Run(ctx, nil); err != nil {
		return err
	}
	worst := p.WorstSeverity()
	rows := p.Rows()
	if minSev == status.Unknown || worst >= minSev {
		if err := report.WriteSummary(w, rows, minSev, styled); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "%s %s: %d commands, worst status %s (%s)\n",
		report.SeverityIcon(worst), p.File(), len(rows), worst, time.Since(start).Round(time.Millisecond))
	if worst >= status.Failure {
		return &exitError{code: exitFailure, err: fmt.Errorf("%s finished with status %s", p.File(), worst)}
	}
	return nil
}
