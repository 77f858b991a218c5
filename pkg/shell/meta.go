package shell

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/eval"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// meta runs a :command and reports whether the shell should exit.
func (s *Shell) meta(ctx context.Context, parts []string) bool {
	switch parts[0] {
	case ":list", ":l":
		s.handleList()
	case ":status", ":s":
		s.handleStatus(parts)
	case ":props", ":p":
		s.handleProps()
	case ":format", ":f":
		all := len(parts) > 1 && parts[1] == "all"
		for _, l := range s.proc.Format(all) {
			fmt.Fprintln(s.output, l)
		}
	case ":save":
		s.handleSave(parts)
	case ":run", ":r":
		s.start = 0
		s.runBlock(ctx)
	case ":clear":
		s.proc.Clear()
		fmt.Fprintln(s.output, "Commands cleared.")
	case ":help", ":h", ":?":
		s.handleHelp()
	case ":quit", ":q":
		return true
	default:
		fmt.Fprintf(s.output, "Unknown shell command: %q. Type ':help' for shell commands.\n", parts[0])
	}
	return false
}

func (s *Shell) handleList() {
	cmds := s.proc.Commands()
	if len(cmds) == 0 {
		fmt.Fprintln(s.output, "No commands.")
		return
	}
	for i, c := range cmds {
		fmt.Fprintf(s.output, "%4d  %s\n", i+1, c.String())
	}
}

func (s *Shell) handleStatus(parts []string) {
	minSev := status.Unknown
	if len(parts) > 1 {
		sev, err := status.ParseSeverity(parts[1])
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
		minSev = sev
	}
	if err := report.WriteSummary(s.output, s.proc.Rows(), minSev, s.styled); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
	}
}

func (s *Shell) handleProps() {
	props := s.proc.Properties()
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(s.output, "  %s = %s\n", n, eval.Stringify(props[n]))
	}
}

func (s *Shell) handleSave(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintln(s.output, "Usage: :save <file>")
		return
	}
	path := command.ResolvePath(s.proc, parts[1])
	data := strings.Join(s.proc.Format(false), "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.output, "Saved %d commands to %s\n", len(s.proc.Commands()), path)
}

// summarize prints the commands of the last run that did not succeed.
func (s *Shell) summarize(cmds []command.Command) {
	rows := command.SummaryRows(cmds)
	for _, r := range rows {
		if r.Worst() >= status.Warning {
			if err := report.WriteSummary(s.output, rows, status.Warning, s.styled); err != nil {
				fmt.Fprintf(s.output, "Error: %v\n", err)
			}
			return
		}
	}
}

func (s *Shell) handleHelp() {
	fmt.Fprintln(s.output, "Enter command lines to run them. For and If blocks run at their End line.")
	fmt.Fprintln(s.output, "Shell commands:")
	fmt.Fprintln(s.output, "  :list (:l)          List entered commands")
	fmt.Fprintln(s.output, "  :status [severity]  Show command status, optionally at severity or worse")
	fmt.Fprintln(s.output, "  :props (:p)         Show processor properties")
	fmt.Fprintln(s.output, "  :format [all]       Show commands in canonical form")
	fmt.Fprintln(s.output, "  :save <file>        Write commands to a command file")
	fmt.Fprintln(s.output, "  :run (:r)           Run all commands again")
	fmt.Fprintln(s.output, "  :clear              Remove all commands")
	fmt.Fprintln(s.output, "  :help (:h)          Show this help")
	fmt.Fprintln(s.output, "  :quit (:q)          Exit the shell")
}
