// Package tui implements a terminal browser for the results of a command
// file run: the command list with per-phase status on the left and the
// selected command's log records on the right.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Status glyphs, so meaning does not depend on color alone.
const (
	GlyphUnknown = "○"
	GlyphInfo    = "·"
	GlyphSuccess = "✓"
	GlyphWarning = "!"
	GlyphFailure = "✗"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var filterBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

var (
	rowUnknown = lipgloss.NewStyle().Faint(true)
	rowInfo    = lipgloss.NewStyle().Foreground(colorBlue)
	rowSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	rowWarning = lipgloss.NewStyle().Foreground(colorYellow)
	rowFailure = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	rowComment = lipgloss.NewStyle().Foreground(colorDim)
)

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)
)

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

var spinnerStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

// glyph returns the glyph and row style for sev.
func glyph(sev status.Severity) (string, lipgloss.Style) {
	switch sev {
	case status.Info:
		return GlyphInfo, rowInfo
	case status.Success:
		return GlyphSuccess, rowSuccess
	case status.Warning:
		return GlyphWarning, rowWarning
	case status.Failure:
		return GlyphFailure, rowFailure
	default:
		return GlyphUnknown, rowUnknown
	}
}
