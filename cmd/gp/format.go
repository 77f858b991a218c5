package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- format ---

var (
	formatAll   bool
	formatWrite bool
)

var formatCmd = &cobra.Command{
	Use:   "format <file.gp>",
	Short: "Print a command file in canonical form",
	Long:  "Re-serialize each command with its parameters in declared order. Blank, comment and unrecognized lines are kept as written.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatAll, "all", false, "Include optional parameters that are not set")
	formatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Rewrite the file instead of printing")
}

func runFormat(cmd *cobra.Command, args []string) error {
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

	text := strings.Join(s.proc.Format(formatAll), "\n") + "\n"
	if !formatWrite {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	return nil
}
