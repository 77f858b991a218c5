// Package report collects regression test results for one report session and
// writes them as aligned text or JSON. All counters live on the Session.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Outcome classifies one test result.
type Outcome string

const (
	Passed   Outcome = "passed"
	Failed   Outcome = "failed"
	Disabled Outcome = "disabled"
)

// Result is the result of running one test command file.
type Result struct {
	Path       string          `json:"path"`
	Outcome    Outcome         `json:"outcome"`
	Expected   status.Severity `json:"expected"`
	Actual     status.Severity `json:"actual"`
	DurationMs int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
}

// Summary aggregates counts across results.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Disabled int `json:"disabled"`
}

// Output is the JSON form of a session.
type Output struct {
	OutputFile string    `json:"output_file,omitempty"`
	Started    time.Time `json:"started"`
	Results    []Result  `json:"results"`
	Summary    Summary   `json:"summary"`
}

// Session is one regression report. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	outputFile string
	started    time.Time
	results    []Result
	summary    Summary
}

// NewSession returns an empty session that WriteFile writes to outputFile.
func NewSession(outputFile string) *Session {
	return &Session{outputFile: outputFile, started: time.Now()}
}

// OutputFile is the path passed to NewSession.
func (s *Session) OutputFile() string { return s.outputFile }

// Evaluate decides the outcome of a test whose worst severity was actual.
// An Unknown expected status means Success is expected.
func Evaluate(enabled bool, expected, actual status.Severity) Outcome {
	if !enabled {
		return Disabled
	}
	if expected == status.Unknown {
		expected = status.Success
	}
	if actual == expected {
		return Passed
	}
	return Failed
}

// Add records r, computing its outcome when unset.
func (s *Session) Add(r Result) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Outcome == "" {
		r.Outcome = Evaluate(true, r.Expected, r.Actual)
	}
	s.results = append(s.results, r)
	s.summary.Total++
	switch r.Outcome {
	case Passed:
		s.summary.Passed++
	case Failed:
		s.summary.Failed++
	case Disabled:
		s.summary.Disabled++
	}
	return r
}

// Results returns a copy of the recorded results.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Summary returns the counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Output returns the JSON form of the session.
func (s *Session) Output() Output {
	return Output{OutputFile: s.outputFile, Started: s.started, Results: s.Results(), Summary: s.Summary()}
}

// WriteText writes one aligned line per result followed by the totals.
func (s *Session) WriteText(w io.Writer) error {
	results := s.Results()
	sum := s.Summary()

	width := runewidth.StringWidth("Test")
	for _, r := range results {
		if n := runewidth.StringWidth(r.Path); n > width {
			width = n
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Regression test report %s\n", s.started.Format(time.RFC3339))
	fmt.Fprintf(&b, "#\n# %s | %-8s | %-8s | %-8s | %s\n", runewidth.FillRight("Test", width), "Outcome", "Expected", "Actual", "Time")
	for i, r := range results {
		fmt.Fprintf(&b, "%5d %s | %-8s | %-8s | %-8s | %dms\n",
			i+1, runewidth.FillRight(r.Path, width), r.Outcome, r.Expected, r.Actual, r.DurationMs)
		if r.Error != "" {
			fmt.Fprintf(&b, "      error: %s\n", r.Error)
		}
	}
	fmt.Fprintf(&b, "#\n# %d passed, %d failed, %d disabled (total: %d)\n",
		sum.Passed, sum.Failed, sum.Disabled, sum.Total)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile writes the session to its output file: JSON when the file ends in
// .json, text otherwise. A session without an output file is a no-op.
func (s *Session) WriteFile() error {
	if s.outputFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.outputFile), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(s.outputFile)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if strings.EqualFold(filepath.Ext(s.outputFile), ".json") {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(s.Output())
	} else {
		err = s.WriteText(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write report %s: %w", s.outputFile, err)
	}
	return nil
}

// Schema returns the JSON Schema of the JSON report document.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&Output{})
	s.ID = "https://github.com/ormasoftchile/geoprocessor/schemas/report.json"
	s.Title = "gp regression report"
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report schema: %w", err)
	}
	return out, nil
}
