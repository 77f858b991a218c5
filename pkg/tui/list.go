package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// listPanel renders the scrollable command list.
type listPanel struct {
	rows    []report.CommandRow
	visible []int // indexes into rows that pass the filter
	min     status.Severity
	cursor  int // position in visible
	offset  int
	width   int
	height  int
}

// SetRows replaces the rows and reapplies the filter, keeping the cursor on
// the same command when it is still shown.
func (p *listPanel) SetRows(rows []report.CommandRow) {
	selected := p.SelectedIndex()
	p.rows = rows
	p.apply(selected)
}

// SetFilter shows only rows whose worst severity is at least min.
func (p *listPanel) SetFilter(min status.Severity) {
	selected := p.SelectedIndex()
	p.min = min
	p.apply(selected)
}

func (p *listPanel) apply(selected int) {
	p.visible = p.visible[:0]
	p.cursor = 0
	for i, r := range p.rows {
		if p.min > status.Unknown && r.Worst() < p.min {
			continue
		}
		if r.Index == selected {
			p.cursor = len(p.visible)
		}
		p.visible = append(p.visible, i)
	}
	p.offset = 0
	p.ensureVisible()
}

// Selected returns the row at the cursor.
func (p *listPanel) Selected() (report.CommandRow, bool) {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return report.CommandRow{}, false
	}
	return p.rows[p.visible[p.cursor]], true
}

// SelectedIndex returns the command index at the cursor, or -1.
func (p *listPanel) SelectedIndex() int {
	if r, ok := p.Selected(); ok {
		return r.Index
	}
	return -1
}

func (p *listPanel) Move(delta int) {
	p.cursor += delta
	if p.cursor >= len(p.visible) {
		p.cursor = len(p.visible) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.ensureVisible()
}

func (p *listPanel) ensureVisible() {
	visible := p.height - 3
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// Counts returns the number of rows per worst severity.
func (p *listPanel) Counts() map[status.Severity]int {
	out := make(map[status.Severity]int)
	for _, r := range p.rows {
		out[r.Worst()]++
	}
	return out
}

func (p *listPanel) View() string {
	if len(p.visible) == 0 {
		msg := "  No commands"
		if len(p.rows) > 0 {
			msg = "  No commands at " + p.min.String() + " or worse"
		}
		return panelBorder.Width(p.width).Height(p.height).Render(panelTitle.Render("Commands") + "\n" + msg)
	}

	visible := p.height - 3
	if visible < 1 {
		visible = 1
	}
	end := p.offset + visible
	if end > len(p.visible) {
		end = len(p.visible)
	}

	var lines []string
	for i := p.offset; i < end; i++ {
		r := p.rows[p.visible[i]]
		g, style := glyph(r.Worst())
		text := r.Command
		if strings.HasPrefix(strings.TrimSpace(text), "#") {
			style = rowComment
		}
		num := fmt.Sprintf("%3d", r.Index+1)
		maxW := p.width - 10
		if maxW < 4 {
			maxW = 4
		}
		text = runewidth.Truncate(text, maxW, "…")
		line := fmt.Sprintf(" %s %s %s", g, num, text)
		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		panelTitle.Render("Commands") + "\n" + strings.Join(lines, "\n"),
	)
}
