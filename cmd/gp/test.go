package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
)

// --- test ---

var (
	testPattern string
	testReport  string
)

var testCmd = &cobra.Command{
	Use:   "test [dir]",
	Short: "Run regression test command files",
	Long: "Find command files matching the test pattern under dir (default: current directory) and run each one. " +
		"A file passes when its worst status matches its #@expectedStatus annotation (default Success); " +
		"#@enabled False skips it. Exits 1 when any test fails.",
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&testPattern, "pattern", "", "File name glob (overrides test.pattern)")
	testCmd.Flags().StringVar(&testReport, "report", "", "Write the report here; .json writes JSON (overrides test.report)")
}

func runTest(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	if testPattern != "" {
		cfg.Test.Pattern = testPattern
	}
	if testReport != "" {
		cfg.Test.Report = testReport
	} else if r := cfg.Test.Report; r != "" && cfg.File != "" && !filepath.IsAbs(r) {
		// relative to the project file
		cfg.Test.Report = filepath.Join(filepath.Dir(cfg.File), r)
	}

	files, err := findTests(dir, cfg.Test.Pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matching %q under %s", cfg.Test.Pattern, dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if cfg.Properties == nil {
		cfg.Properties = make(map[string]any)
	}
	cfg.Properties[processor.WorkingDirProperty] = abs
	s, err := newSession(cfg, "", cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	sess := report.NewSession(cfg.Test.Report)
	s.proc.SetReportSession(sess)
	s.proc.Load(testLines(files))
	if err := s.proc.Run(cmd.Context(), nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := sess.WriteText(out); err != nil {
		return err
	}
	if cfg.Test.Report != "" {
		fmt.Fprintf(out, "Report written to %s\n", cfg.Test.Report)
	}
	if sum := sess.Summary(); sum.Failed > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d of %d tests failed", sum.Failed, sum.Total)}
	}
	return nil
}

// findTests returns the files under dir whose base name matches pattern,
// sorted.
func findTests(dir, pattern string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("test pattern: %w", err)
		}
		if ok {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// testLines builds the driver command file: one RunCommands per test.
func testLines(files []string) []string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		lines = append(lines, fmt.Sprintf(`RunCommands(CommandFile="%s")`, filepath.ToSlash(abs)))
	}
	return lines
}
