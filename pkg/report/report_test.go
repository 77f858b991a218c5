package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		expected status.Severity
		actual   status.Severity
		want     Outcome
	}{
		{"default expects success", true, status.Unknown, status.Success, Passed},
		{"default fails on warning", true, status.Unknown, status.Warning, Failed},
		{"expected failure matches", true, status.Failure, status.Failure, Passed},
		{"expected failure got success", true, status.Failure, status.Success, Failed},
		{"disabled", false, status.Success, status.Failure, Disabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.enabled, tt.expected, tt.actual); got != tt.want {
				t.Errorf("Evaluate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSessionCountersAreIndependent(t *testing.T) {
	a := NewSession("")
	b := NewSession("")
	a.Add(Result{Path: "t1.gp", Expected: status.Success, Actual: status.Success})
	a.Add(Result{Path: "t2.gp", Expected: status.Success, Actual: status.Failure})
	a.Add(Result{Path: "t3.gp", Outcome: Disabled})

	sum := a.Summary()
	if sum.Total != 3 || sum.Passed != 1 || sum.Failed != 1 || sum.Disabled != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got := b.Summary(); got.Total != 0 {
		t.Errorf("second session total = %d, want 0", got.Total)
	}
}

func TestWriteText(t *testing.T) {
	s := NewSession("")
	s.Add(Result{Path: "test-short.gp", Expected: status.Success, Actual: status.Success})
	s.Add(Result{Path: "test-much-longer-name.gp", Expected: status.Failure, Actual: status.Warning, Error: "boom"})

	var buf bytes.Buffer
	if err := s.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"test-short.gp", "passed", "failed", "error: boom", "1 passed, 1 failed, 0 disabled (total: 2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Columns line up: the separator after the path is at the same offset on both rows.
	var offsets []int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, ".gp") && !strings.HasPrefix(line, "#") {
			offsets = append(offsets, strings.Index(line, "|"))
		}
	}
	if len(offsets) != 2 || offsets[0] != offsets[1] {
		t.Errorf("misaligned columns: %v", offsets)
	}
}

func TestWriteFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	s := NewSession(path)
	s.Add(Result{Path: "a.gp", Expected: status.Success, Actual: status.Success})
	if err := s.WriteFile(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary.Passed != 1 || len(out.Results) != 1 || out.Results[0].Actual != status.Success {
		t.Errorf("round trip = %+v", out)
	}
}

func TestWriteSummaryFilters(t *testing.T) {
	rows := []CommandRow{
		{Index: 0, Command: `SetProperty(PropertyName="a")`, Status: [3]status.Severity{status.Success, status.Success, status.Success}},
		{Index: 1, Command: `Bad()`, Status: [3]status.Severity{status.Failure, status.Unknown, status.Unknown},
			Records: []status.Record{{Severity: status.Failure, Problem: "broken", Recommendation: "fix it"}}},
	}
	var buf bytes.Buffer
	if err := WriteSummary(&buf, rows, status.Warning, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "SetProperty") {
		t.Errorf("successful row should be filtered:\n%s", out)
	}
	for _, want := range []string{"Bad()", "broken", "recommendation: fix it", "worst severity: Failure"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"results"`, `"summary"`, `"duration_ms"`} {
		if !strings.Contains(string(s), want) {
			t.Errorf("schema missing %s", want)
		}
	}
}
