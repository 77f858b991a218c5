package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// detailPanel shows one command's phase status and log records.
type detailPanel struct {
	viewport viewport.Model
	content  string
	width    int
	height   int
	ready    bool
}

func (p *detailPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	contentW := width - 4
	contentH := height - 3
	if contentW < 1 {
		contentW = 1
	}
	if contentH < 1 {
		contentH = 1
	}
	if !p.ready {
		p.viewport = viewport.New(contentW, contentH)
		p.ready = true
	} else {
		p.viewport.Width = contentW
		p.viewport.Height = contentH
	}
	p.viewport.SetContent(p.content)
}

// Show renders row into the panel.
func (p *detailPanel) Show(row report.CommandRow) {
	w := p.width - 4
	if w < 20 {
		w = 20
	}
	p.content = renderMarkdown(rowMarkdown(row), w)
	if p.ready {
		p.viewport.SetContent(p.content)
		p.viewport.GotoTop()
	}
}

func (p *detailPanel) Update(msg tea.Msg) {
	if p.ready {
		p.viewport, _ = p.viewport.Update(msg)
	}
}

func (p *detailPanel) PageUp() {
	if p.ready {
		p.viewport.HalfViewUp()
	}
}

func (p *detailPanel) PageDown() {
	if p.ready {
		p.viewport.HalfViewDown()
	}
}

func (p *detailPanel) View() string {
	content := "  Nothing selected"
	if p.ready {
		content = p.viewport.View()
	}
	header := panelTitle.Render("Status")
	if p.ready && p.viewport.TotalLineCount() > p.viewport.VisibleLineCount() {
		header += keyDescStyle.Render(fmt.Sprintf(" %3.0f%%", p.viewport.ScrollPercent()*100))
	}
	return panelBorder.Width(p.width).Height(p.height).Render(header + "\n" + content)
}

// rowMarkdown describes row as markdown: the command, a phase table and the
// records.
func rowMarkdown(row report.CommandRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimSpace(row.Command))
	b.WriteString("| Phase | Status |\n|---|---|\n")
	for _, ph := range status.Phases {
		fmt.Fprintf(&b, "| %s | %s |\n", ph, row.Status[ph])
	}
	if len(row.Records) == 0 {
		b.WriteString("\nNo log records.\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, r := range row.Records {
		fmt.Fprintf(&b, "- **%s** %s", r.Severity, r.Problem)
		if r.Recommendation != "" {
			fmt.Fprintf(&b, "  \n  _%s_", r.Recommendation)
		}
		if r.Source != "" {
			fmt.Fprintf(&b, "  \n  from `%s`", r.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}
