// Package status implements the per-command three-phase status log:
// ordered records per phase and a rolled-up "worst severity seen".
package status

import (
	"fmt"
	"strings"
)

// Severity is the outcome level of a log record or phase.
// The numeric order is the aggregation order: Unknown < Info < Success < Warning < Failure.
type Severity int

const (
	Unknown Severity = iota // not yet evaluated
	Info
	Success
	Warning
	Failure
)

var severityNames = [...]string{"Unknown", "Info", "Success", "Warning", "Failure"}

func (s Severity) String() string {
	if s < Unknown || s > Failure {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name case-insensitively ("failure", "FAILURE", "Failure").
func ParseSeverity(s string) (Severity, error) {
	t := strings.TrimSpace(s)
	for i, name := range severityNames {
		if strings.EqualFold(t, name) {
			return Severity(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown severity %q (expected one of %s)", s, strings.Join(severityNames[:], ", "))
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Phase identifies one of the three command lifecycle phases.
type Phase int

const (
	Initialization Phase = iota
	Discovery
	Run
)

// Phases lists all phases in lifecycle order.
var Phases = []Phase{Initialization, Discovery, Run}

func (p Phase) String() string {
	switch p {
	case Initialization:
		return "initialization"
	case Discovery:
		return "discovery"
	case Run:
		return "run"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Record is a single log entry.
type Record struct {
	Severity       Severity `json:"severity"`
	Problem        string   `json:"problem"`
	Recommendation string   `json:"recommendation,omitempty"`
	// Source is the command string that produced the record when it was
	// folded in from another processor. Empty for a command's own records.
	Source string `json:"source,omitempty"`
}

func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", r.Severity, r.Problem)
	if r.Recommendation != "" {
		fmt.Fprintf(&b, " (%s)", r.Recommendation)
	}
	return b.String()
}

type phaseLog struct {
	severity Severity
	records  []Record
}

// Status holds the three phase logs of one command instance.
// The zero value is ready to use: all phases Unknown with no records.
type Status struct {
	phases [3]phaseLog
}

// New returns an empty status.
func New() *Status {
	return &Status{}
}

// Add appends a record to phase and raises the phase severity to at least sev.
func (s *Status) Add(phase Phase, sev Severity, problem, recommendation string) {
	s.AddRecord(phase, Record{Severity: sev, Problem: problem, Recommendation: recommendation})
}

// AddRecord appends rec to phase and raises the phase severity.
func (s *Status) AddRecord(phase Phase, rec Record) {
	pl := &s.phases[phase]
	pl.records = append(pl.records, rec)
	pl.severity = Max(pl.severity, rec.Severity)
}

// AddUnique appends rec only if an identical record is not already present.
// Returns true if the record was added.
func (s *Status) AddUnique(phase Phase, rec Record) bool {
	for _, r := range s.phases[phase].records {
		if r == rec {
			return false
		}
	}
	s.AddRecord(phase, rec)
	return true
}

// Raise sets the phase severity to max(current, sev) without adding a record.
func (s *Status) Raise(phase Phase, sev Severity) {
	pl := &s.phases[phase]
	pl.severity = Max(pl.severity, sev)
}

// SetIfUnknown sets the phase severity only when it is still Unknown.
// Used at the end of a phase that produced no records to promote Unknown to Success.
func (s *Status) SetIfUnknown(phase Phase, sev Severity) {
	if s.phases[phase].severity == Unknown {
		s.phases[phase].severity = sev
	}
}

// Severity returns the rolled-up severity of phase.
func (s *Status) Severity(phase Phase) Severity {
	return s.phases[phase].severity
}

// Records returns a copy of the records of phase.
func (s *Status) Records(phase Phase) []Record {
	src := s.phases[phase].records
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Clear resets phase to Unknown with no records.
func (s *Status) Clear(phase Phase) {
	s.phases[phase] = phaseLog{}
}

// Worst returns the maximum severity over all phases.
func (s *Status) Worst() Severity {
	w := Unknown
	for _, pl := range s.phases {
		w = Max(w, pl.severity)
	}
	return w
}

// All returns the records of every phase in lifecycle order.
func (s *Status) All() []Record {
	var out []Record
	for _, pl := range s.phases {
		out = append(out, pl.records...)
	}
	return out
}

// AtLeast returns the records of every phase whose severity is >= min.
func (s *Status) AtLeast(min Severity) []Record {
	var out []Record
	for _, pl := range s.phases {
		for _, r := range pl.records {
			if r.Severity >= min {
				out = append(out, r)
			}
		}
	}
	return out
}

// ForceAll sets every phase severity to sev, keeping records. Comment lines use
// this so reports never flag them.
func (s *Status) ForceAll(sev Severity) {
	for i := range s.phases {
		s.phases[i].severity = sev
	}
}
