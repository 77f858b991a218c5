package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/config"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate <file.gp>",
	Short: "Check a command file without running it",
	Long:  "Parse every command, validate its parameters and check that For/If blocks are matched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	cfg.Trace = ""
	s, err := newSession(cfg, args[0], io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()

	problems, structErr := s.proc.Check(status.Warning)
	out := cmd.OutOrStdout()
	failures := 0
	for _, pr := range problems {
		mark := "⚠"
		if pr.Record.Severity >= status.Failure {
			mark = "✗"
			failures++
		}
		fmt.Fprintf(out, "  %s line %d: %s\n", mark, pr.Line, pr.Record)
		fmt.Fprintf(out, "    in: %s\n", pr.Command)
	}
	if structErr != nil {
		return structErr
	}
	if failures > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("validation failed with %d error(s)", failures)}
	}
	fmt.Fprintf(out, "✓ %s is valid (%d commands)\n", args[0], len(s.proc.Commands()))
	if cfg.File != "" {
		fmt.Fprintf(out, "  config: %s\n", cfg.File)
	}
	return nil
}

// configSummary lists the effective settings; used by shell and view banners.
func configSummary(cfg *config.Config) string {
	var b strings.Builder
	if cfg.File != "" {
		fmt.Fprintf(&b, "config %s, ", cfg.File)
	}
	fmt.Fprintf(&b, "collision policy %s", cfg.Policy())
	if names := cfg.PropertyNames(); len(names) > 0 {
		fmt.Fprintf(&b, ", properties %s", strings.Join(names, ", "))
	}
	return b.String()
}
