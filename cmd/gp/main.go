// Package main provides the gp binary: run, check and test command files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/config"
	"github.com/ormasoftchile/geoprocessor/pkg/controlflow"
	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/trace"

	_ "github.com/ormasoftchile/geoprocessor/pkg/commands"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitStructure = 2
)

// exitError carries a status code out of RunE without printing usage.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var se *controlflow.StructureError
	if errors.As(err, &se) {
		return exitStructure
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

var rootCmd = &cobra.Command{
	Use:           "gp",
	Short:         "Run geoprocessing command files",
	Long:          "gp runs command files: one command per line, with For/If blocks, ${Property} expansion and per-command status.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags override the project file and GP_* variables.
var (
	flagProperties    []string
	flagLogLevel      string
	flagLogFormat     string
	flagTrace         string
	flagPolicy        string
	flagStopOnFailure bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&flagProperties, "property", "p", nil, "Set a property (Name=Value), repeatable")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flagTrace, "trace", "", "Write a JSONL trace of the run to this file")
	pf.StringVar(&flagPolicy, "collision-policy", "", "Default If...Exists policy: Replace, ReplaceAndWarn, Warn or Fail")
	pf.BoolVar(&flagStopOnFailure, "stop-on-failure", false, "Stop after the first command that fails")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig discovers the project file above start and applies the global
// flags.
func loadConfig(cmd *cobra.Command, start string) (*config.Config, error) {
	cfg, err := config.Load(start)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if flags.Changed("trace") {
		cfg.Trace = flagTrace
	}
	if flags.Changed("collision-policy") {
		cfg.CollisionPolicy = flagPolicy
	}
	if flags.Changed("stop-on-failure") {
		cfg.StopOnFailure = flagStopOnFailure
	}
	props, err := parseProperties(flagProperties)
	if err != nil {
		return nil, err
	}
	if len(props) > 0 && cfg.Properties == nil {
		cfg.Properties = make(map[string]any, len(props))
	}
	for k, v := range props {
		cfg.Properties[k] = v
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// parseProperties parses Name=Value pairs. Values stay strings.
func parseProperties(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q (expected Name=Value)", p)
		}
		out[name] = value
	}
	return out, nil
}

// session is a processor built from config, with its trace file.
type session struct {
	proc  *processor.Processor
	trace *trace.Writer
}

func (s *session) Close() {
	if s.trace != nil {
		s.trace.Close()
	}
}

// newSession creates a processor from cfg writing messages to out, and loads
// file when it is not empty.
func newSession(cfg *config.Config, file string, out io.Writer) (*session, error) {
	s := &session{}
	if cfg.Trace != "" {
		tw, err := trace.NewFileWriter(cfg.Trace, trace.NewRunID())
		if err != nil {
			return nil, err
		}
		s.trace = tw
	}
	s.proc = processor.New(processor.Config{
		Logger:          cfg.NewLogger(os.Stderr),
		Trace:           s.trace,
		Output:          out,
		StopOnFailure:   cfg.StopOnFailure,
		CollisionPolicy: cfg.Policy(),
		Properties:      cfg.Properties,
	})
	if file != "" {
		if err := s.proc.LoadFile(file); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gp %s (build: %s)\n", version, commit)
	},
}
