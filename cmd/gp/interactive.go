package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/shell"
	"github.com/ormasoftchile/geoprocessor/pkg/tui"
)

// --- shell ---

var shellCmd = &cobra.Command{
	Use:   "shell [file.gp]",
	Short: "Enter commands interactively",
	Long:  "Start an interactive shell. With a file, its commands are loaded and run first.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	start, file := ".", ""
	if len(args) == 1 {
		start, file = args[0], args[0]
	}
	cfg, err := loadConfig(cmd, start)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, file, os.Stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(os.Stdout, configSummary(cfg))
	if file != "" {
		if err := s.proc.Run(cmd.Context(), nil); err != nil {
			fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		}
	}
	return shell.New(s.proc).Run(cmd.Context())
}

// --- view ---

var viewCmd = &cobra.Command{
	Use:   "view <file.gp>",
	Short: "Run a command file and browse the results",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	// The browser owns the terminal.
	cfg.Log.Level = "error"
	s, err := newSession(cfg, args[0], io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Run(tui.Config{Processor: s.proc, Context: cmd.Context()})
}
