package status

import (
	"encoding/json"
	"testing"
)

func TestSeverityOrder(t *testing.T) {
	order := []Severity{Unknown, Info, Success, Warning, Failure}
	for i := 1; i < len(order); i++ {
		if !(order[i-1] < order[i]) {
			t.Errorf("%s should be below %s", order[i-1], order[i])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"Failure", Failure},
		{"FAILURE", Failure},
		{" warning ", Warning},
		{"success", Success},
		{"Info", Info},
		{"unknown", Unknown},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if err != nil {
			t.Fatalf("ParseSeverity(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseSeverity("FAIL"); err == nil {
		t.Error("expected error for partial name")
	}
}

func TestStatus_NewIsUnknown(t *testing.T) {
	s := New()
	for _, p := range Phases {
		if s.Severity(p) != Unknown {
			t.Errorf("%s = %s, want Unknown", p, s.Severity(p))
		}
		if len(s.Records(p)) != 0 {
			t.Errorf("%s has records", p)
		}
	}
}

func TestStatus_Monotonic(t *testing.T) {
	seq := []Severity{Info, Warning, Success, Failure, Info, Warning}
	s := New()
	max := Unknown
	prev := Unknown
	for _, sev := range seq {
		s.Add(Run, sev, "p", "")
		if sev > max {
			max = sev
		}
		got := s.Severity(Run)
		if got < prev {
			t.Fatalf("severity decreased from %s to %s", prev, got)
		}
		if got != max {
			t.Fatalf("severity = %s, want max %s", got, max)
		}
		prev = got
	}
	if len(s.Records(Run)) != len(seq) {
		t.Errorf("records = %d, want %d", len(s.Records(Run)), len(seq))
	}
	if s.Severity(Initialization) != Unknown {
		t.Error("other phases must be independent")
	}
}

func TestStatus_SetIfUnknown(t *testing.T) {
	s := New()
	s.SetIfUnknown(Initialization, Success)
	if s.Severity(Initialization) != Success {
		t.Errorf("got %s", s.Severity(Initialization))
	}
	s.Add(Run, Warning, "w", "")
	s.SetIfUnknown(Run, Success)
	if s.Severity(Run) != Warning {
		t.Errorf("SetIfUnknown must not override, got %s", s.Severity(Run))
	}
}

func TestStatus_AddUnique(t *testing.T) {
	s := New()
	rec := Record{Severity: Failure, Problem: "missing X"}
	if !s.AddUnique(Initialization, rec) {
		t.Fatal("first add should succeed")
	}
	if s.AddUnique(Initialization, rec) {
		t.Fatal("duplicate add should be suppressed")
	}
	if n := len(s.Records(Initialization)); n != 1 {
		t.Errorf("records = %d", n)
	}
}

func TestStatus_WorstAndClear(t *testing.T) {
	s := New()
	s.Add(Initialization, Success, "ok", "")
	s.Add(Run, Failure, "boom", "check input")
	if s.Worst() != Failure {
		t.Errorf("worst = %s", s.Worst())
	}
	s.Clear(Run)
	if s.Worst() != Success {
		t.Errorf("after clear worst = %s", s.Worst())
	}
}

func TestSeverity_JSON(t *testing.T) {
	data, err := json.Marshal(Record{Severity: Warning, Problem: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Severity != Warning {
		t.Errorf("round trip severity = %s", rec.Severity)
	}
}
