// Package controlflow implements the For/EndFor/If/EndIf/Exit commands and
// the frame stack, cursor and block matching the processor's execution loop
// uses to run them.
package controlflow

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
)

// StructureError reports a For/If block that cannot execute: a missing or
// misnamed terminator, or a terminator with no open block. It aborts the run.
type StructureError struct {
	Index   int // zero-based command index
	Line    string
	Message string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("command %d: %s: %s", e.Index+1, e.Message, strings.TrimSpace(e.Line))
}

func structureErrorf(cmds []command.Command, i int, msg string, args ...any) *StructureError {
	line := ""
	if i >= 0 && i < len(cmds) {
		line = cmds[i].String()
	}
	return &StructureError{Index: i, Line: line, Message: fmt.Sprintf(msg, args...)}
}

// FrameKind is the construct a frame belongs to.
type FrameKind int

const (
	FrameFor FrameKind = iota
	FrameIf
)

func (k FrameKind) String() string {
	if k == FrameFor {
		return "For"
	}
	return "If"
}

// Frame is one open For or If block.
type Frame struct {
	Name string
	Kind FrameKind
	// True is false for an If whose condition failed and for blocks entered
	// while not live.
	True bool
	// Index is the command index of the block start.
	Index int
}

// Stack holds the open frames, outer to inner.
type Stack struct {
	frames []Frame
}

func (s *Stack) Push(f Frame) { s.frames = append(s.frames, f) }

// Pop removes the innermost frame.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Top returns the innermost frame.
func (s *Stack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *Stack) Len() int { return len(s.frames) }

// Frames returns a copy of the open frames.
func (s *Stack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Live reports whether every open frame is true.
func (s *Stack) Live() bool {
	for _, f := range s.frames {
		if !f.True {
			return false
		}
	}
	return true
}

// Cursor is the command index of the execution loop. Jumps are expressed
// relative to the following Next call.
type Cursor struct {
	i, n int
}

// NewCursor returns a cursor over n commands positioned before the first.
func NewCursor(n int) *Cursor { return &Cursor{i: -1, n: n} }

// Next advances and returns the new index, or false past the end.
func (c *Cursor) Next() (int, bool) {
	c.i++
	return c.i, c.i < c.n
}

// Index returns the current index.
func (c *Cursor) Index() int { return c.i }

// ResumeAfter makes the next command index+1.
func (c *Cursor) ResumeAfter(index int) { c.i = index }

// Restart makes the next command index itself.
func (c *Cursor) Restart(index int) { c.i = index - 1 }

// Stop makes the next Next report the end.
func (c *Cursor) Stop() { c.i = c.n }
