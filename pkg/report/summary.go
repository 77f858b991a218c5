package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// CommandRow is one command's line in a run summary.
type CommandRow struct {
	Index   int
	Command string
	Status  [3]status.Severity // indexed by status.Phase
	Records []status.Record
}

// Worst returns the maximum of the row's phase severities.
func (r CommandRow) Worst() status.Severity {
	w := status.Unknown
	for _, s := range r.Status {
		w = status.Max(w, s)
	}
	return w
}

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// SeverityStyle returns the terminal style for sev.
func SeverityStyle(sev status.Severity) lipgloss.Style {
	switch sev {
	case status.Info:
		return infoStyle
	case status.Success:
		return successStyle
	case status.Warning:
		return warningStyle
	case status.Failure:
		return failureStyle
	}
	return unknownStyle
}

// SeverityIcon returns a one-glyph marker for sev.
func SeverityIcon(sev status.Severity) string {
	switch sev {
	case status.Success, status.Info:
		return "✓"
	case status.Warning:
		return "!"
	case status.Failure:
		return "✗"
	}
	return "○"
}

// WriteSummary writes rows as an aligned table. With minSeverity above
// Unknown, only rows whose worst severity reaches it are written, and each
// is followed by its qualifying records. Styled output colors the severities.
func WriteSummary(w io.Writer, rows []CommandRow, minSeverity status.Severity, styled bool) error {
	color := func(sev status.Severity, s string) string {
		if !styled {
			return s
		}
		return SeverityStyle(sev).Render(s)
	}

	cmdWidth := runewidth.StringWidth("Command")
	for _, r := range rows {
		if n := runewidth.StringWidth(r.Command); n > cmdWidth && n <= 80 {
			cmdWidth = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%5s  %-8s %-8s %-8s  %s\n", "#", "Init", "Discover", "Run", "Command")
	worst := status.Unknown
	for _, r := range rows {
		rw := r.Worst()
		worst = status.Max(worst, rw)
		if minSeverity > status.Unknown && rw < minSeverity {
			continue
		}
		cells := make([]string, len(r.Status))
		for i, s := range r.Status {
			cells[i] = color(s, runewidth.FillRight(s.String(), 8))
		}
		fmt.Fprintf(&b, "%5d  %s %s %s  %s %s\n", r.Index+1, cells[0], cells[1], cells[2],
			color(rw, SeverityIcon(rw)), runewidth.Truncate(r.Command, cmdWidth, "…"))
		if minSeverity > status.Unknown {
			for _, rec := range r.Records {
				if rec.Severity >= minSeverity {
					fmt.Fprintf(&b, "       %s %s\n", color(rec.Severity, rec.Severity.String()+":"), rec.Problem)
					if rec.Recommendation != "" {
						fmt.Fprintf(&b, "         recommendation: %s\n", rec.Recommendation)
					}
				}
			}
		}
	}
	fmt.Fprintf(&b, "\n  %d commands, worst severity: %s\n", len(rows), color(worst, worst.String()))
	_, err := io.WriteString(w, b.String())
	return err
}
