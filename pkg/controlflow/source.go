package controlflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// source yields the iteration values of a For loop.
type source interface {
	next() (any, bool)
}

// sequence counts from start to end inclusive by inc. Values are computed
// as start+n*inc so float sequences do not drift.
type sequence struct {
	start, end, inc float64
	isInt           bool
	n               int
}

func newSequence(start, end, inc string) (*sequence, error) {
	if strings.TrimSpace(inc) == "" {
		inc = "1"
	}
	isInt := true
	var vals [3]float64
	for i, s := range []string{start, end, inc} {
		s = strings.TrimSpace(s)
		if _, err := strconv.Atoi(s); err != nil {
			isInt = false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("sequence value %q is not a number", s)
		}
		vals[i] = f
	}
	if vals[2] == 0 {
		return nil, fmt.Errorf("sequence increment must not be zero")
	}
	return &sequence{start: vals[0], end: vals[1], inc: vals[2], isInt: isInt}, nil
}

func (s *sequence) next() (any, bool) {
	v := s.start + float64(s.n)*s.inc
	eps := math.Abs(s.inc) * 1e-9
	if (s.inc > 0 && v > s.end+eps) || (s.inc < 0 && v < s.end-eps) {
		return nil, false
	}
	s.n++
	if s.isInt {
		return int(math.Round(v)), true
	}
	return v, true
}

// values iterates a fixed list.
type values struct {
	items []string
	n     int
}

func (l *values) next() (any, bool) {
	if l.n >= len(l.items) {
		return nil, false
	}
	v := l.items[l.n]
	l.n++
	return v, true
}
