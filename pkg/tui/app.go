package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// runDoneMsg carries the rows of a finished run.
type runDoneMsg struct {
	rows     []report.CommandRow
	worst    status.Severity
	duration time.Duration
	err      error
}

// filters is the cycle order of the f key.
var filters = []status.Severity{status.Unknown, status.Warning, status.Failure}

// Config holds what the browser needs to run.
type Config struct {
	// Processor has its command file loaded. The browser owns it while the
	// program runs.
	Processor *processor.Processor
	// Context bounds every run; nil uses context.Background.
	Context context.Context
}

// Model is the Bubble Tea model of the results browser.
type Model struct {
	list    listPanel
	detail  detailPanel
	spinner spinner.Model

	proc *processor.Processor
	ctx  context.Context

	running  bool
	filter   int
	worst    status.Severity
	duration time.Duration
	runs     int
	fatalErr string

	width  int
	height int
}

// New creates the model. The first run starts from Init.
func New(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		spinner: s,
		proc:    cfg.Processor,
		ctx:     ctx,
		running: true,
	}
}

// Run starts the browser full screen and blocks until the user quits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCmd())
}

// runCmd runs the command file once. Update does not touch the processor
// until runDoneMsg arrives.
func (m Model) runCmd() tea.Cmd {
	proc, ctx := m.proc, m.ctx
	return func() tea.Msg {
		start := time.Now()
		err := proc.Run(ctx, nil)
		return runDoneMsg{
			rows:     proc.Rows(),
			worst:    proc.WorstSeverity(),
			duration: time.Since(start),
			err:      err,
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if r, ok := m.list.Selected(); ok {
			m.detail.Show(r)
		}
		return m, nil

	case runDoneMsg:
		m.running = false
		m.runs++
		m.worst = msg.worst
		m.duration = msg.duration
		m.fatalErr = ""
		if msg.err != nil {
			m.fatalErr = msg.err.Error()
		}
		m.list.SetRows(msg.rows)
		m.showSelected()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.detail.Update(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	if m.running {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Up):
		m.list.Move(-1)
		m.showSelected()
	case key.Matches(msg, keys.Down):
		m.list.Move(1)
		m.showSelected()
	case key.Matches(msg, keys.Top):
		m.list.Move(-len(m.list.rows))
		m.showSelected()
	case key.Matches(msg, keys.Bottom):
		m.list.Move(len(m.list.rows))
		m.showSelected()
	case key.Matches(msg, keys.PgUp):
		m.detail.PageUp()
	case key.Matches(msg, keys.PgDown):
		m.detail.PageDown()
	case key.Matches(msg, keys.Filter):
		m.filter = (m.filter + 1) % len(filters)
		m.list.SetFilter(filters[m.filter])
		m.showSelected()
	case key.Matches(msg, keys.Rerun):
		m.running = true
		return m, tea.Batch(m.spinner.Tick, m.runCmd())
	}
	return m, nil
}

func (m *Model) showSelected() {
	if r, ok := m.list.Selected(); ok {
		m.detail.Show(r)
	}
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// header(1) + panels + key bar(1)
	mainH := m.height - 2
	if mainH < 4 {
		mainH = 4
	}
	listW := m.width * 45 / 100
	if listW < 30 {
		listW = 30
	}
	m.list.width = listW
	m.list.height = mainH
	m.list.ensureVisible()
	m.detail.SetSize(m.width-listW, mainH)
}

func (m Model) View() string {
	header := m.renderHeader()
	if m.width == 0 {
		return header
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.detail.View())
	out := header + "\n" + main + "\n"
	if m.fatalErr != "" {
		out += errorStyle.Render("Error: "+m.fatalErr) + "  "
	}
	return out + keyBarText(m.running)
}

func (m Model) renderHeader() string {
	name := "gp"
	if m.proc != nil && m.proc.File() != "" {
		name = filepath.Base(m.proc.File())
	}
	left := headerStyle.Render("gp") + " " + valueStyle.Render(name)
	if f := filters[m.filter]; f > status.Unknown {
		left += " " + filterBadgeStyle.Render(f.String()+"+")
	}

	var right string
	if m.running {
		right = m.spinner.View() + " running"
	} else {
		counts := m.list.Counts()
		var parts []string
		for _, sev := range []status.Severity{status.Success, status.Warning, status.Failure} {
			g, style := glyph(sev)
			parts = append(parts, style.Render(fmt.Sprintf("%s%d", g, counts[sev])))
		}
		g, style := glyph(m.worst)
		right = strings.Join(parts, " ") + "  " + labelStyle.Render("worst ") + style.Render(g+" "+m.worst.String()) +
			keyDescStyle.Render(fmt.Sprintf("  %s", m.duration.Round(time.Millisecond)))
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}
