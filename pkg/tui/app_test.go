package tui

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/status"

	_ "github.com/ormasoftchile/geoprocessor/pkg/commands"
)

func newModel(t *testing.T, lines ...string) Model {
	t.Helper()
	p := processor.New(processor.Config{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Output:     io.Discard,
		Properties: map[string]any{processor.WorkingDirProperty: t.TempDir()},
	})
	p.Load(lines)
	return New(Config{Processor: p})
}

// finish runs the command file synchronously and applies the result.
func finish(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)
	next, _ = m.Update(m.runCmd()())
	return next.(Model)
}

func press(m Model, k tea.KeyMsg) Model {
	next, _ := m.Update(k)
	return next.(Model)
}

var (
	keyDown   = tea.KeyMsg{Type: tea.KeyDown}
	keyFilter = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")}
	keyRerun  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}
	keyQuit   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

var sample = []string{
	`# header`,
	`Message(Message="one")`,
	`Message(Message="two",CommandStatus="Warning")`,
	`Message(Message="three",CommandStatus="Failure")`,
}

func TestModel_RunAndNavigate(t *testing.T) {
	m := finish(t, newModel(t, sample...))
	if m.running || m.runs != 1 {
		t.Fatalf("running = %v, runs = %d", m.running, m.runs)
	}
	if m.worst != status.Failure {
		t.Errorf("worst = %v", m.worst)
	}
	if got := m.list.SelectedIndex(); got != 0 {
		t.Errorf("initial selection = %d", got)
	}
	m = press(m, keyDown)
	m = press(m, keyDown)
	if got := m.list.SelectedIndex(); got != 2 {
		t.Errorf("after two downs selection = %d", got)
	}
	if !strings.Contains(m.detail.content, "two") {
		t.Errorf("detail should describe the selected command:\n%s", m.detail.content)
	}
	for i := 0; i < 10; i++ {
		m = press(m, keyDown)
	}
	if got := m.list.SelectedIndex(); got != 3 {
		t.Errorf("cursor should stop at the last command, got %d", got)
	}
}

func TestModel_Filter(t *testing.T) {
	m := finish(t, newModel(t, sample...))
	m = press(m, keyDown)
	m = press(m, keyDown)

	tests := []struct {
		want     []int
		selected int
	}{
		{[]int{2, 3}, 2},
		{[]int{3}, 3},
		{[]int{0, 1, 2, 3}, 3},
	}
	for i, tt := range tests {
		m = press(m, keyFilter)
		var got []int
		for _, v := range m.list.visible {
			got = append(got, m.list.rows[v].Index)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filter %d: visible = %v, want %v", i, got, tt.want)
		}
		if s := m.list.SelectedIndex(); s != tt.selected {
			t.Errorf("filter %d: selected = %d, want %d", i, s, tt.selected)
		}
	}
}

func TestModel_Rerun(t *testing.T) {
	m := finish(t, newModel(t, sample...))
	m = press(m, keyRerun)
	if !m.running {
		t.Fatal("r should start a run")
	}
	if m2 := press(m, keyDown); m2.list.SelectedIndex() != 0 {
		t.Error("keys other than quit are ignored while running")
	}
	next, _ := m.Update(m.runCmd()())
	m = next.(Model)
	if m.runs != 2 || m.running {
		t.Errorf("runs = %d, running = %v", m.runs, m.running)
	}
	if got := m.list.Counts()[status.Failure]; got != 1 {
		t.Errorf("rerun should not accumulate records, failures = %d", got)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t, sample...)
	_, cmd := m.Update(keyQuit)
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit even while running")
	}
}

func TestModel_View(t *testing.T) {
	m := finish(t, newModel(t, sample...))
	v := m.View()
	for _, want := range []string{"Commands", "Status", "Failure", GlyphWarning} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRowMarkdown(t *testing.T) {
	m := finish(t, newModel(t, sample...))
	md := rowMarkdown(m.list.rows[3])
	for _, want := range []string{"```\nMessage(Message=\"three\",CommandStatus=\"Failure\")\n```", "| run | Failure |", "- **Failure** three"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if md := rowMarkdown(m.list.rows[1]); !strings.Contains(md, "No log records.") {
		t.Errorf("markdown = %s", md)
	}
}
