package command

import (
	"context"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// placeholder is shared by the line types that carry no parameters. They
// format back to the original line verbatim.
type placeholder struct {
	Base
	kind Kind
}

func (p *placeholder) Kind() Kind { return p.kind }

func (p *placeholder) Initialize(line string, proc Processor, _ bool) error {
	return p.Base.Initialize(line, proc, false)
}

func (p *placeholder) ValidateParameters(*Parameters) error {
	p.status.SetIfUnknown(status.Initialization, status.Success)
	return nil
}

func (p *placeholder) Execute(context.Context) error { return nil }

func (p *placeholder) Format(bool) string { return p.raw }

// Blank is a whitespace-only line.
type Blank struct{ placeholder }

func NewBlank() *Blank {
	return &Blank{placeholder{Base: NewBase(""), kind: KindBlank}}
}

// Comment is a # line. Its status is Success in every phase.
type Comment struct{ placeholder }

func NewComment() *Comment {
	c := &Comment{placeholder{Base: NewBase("#"), kind: KindComment}}
	c.status.ForceAll(status.Success)
	return c
}

func (c *Comment) Execute(context.Context) error {
	c.status.ForceAll(status.Success)
	return nil
}

// Annotation parses a "#@key value" comment.
func (c *Comment) Annotation() (key, value string, ok bool) {
	t := strings.TrimSpace(c.raw)
	if !strings.HasPrefix(t, "#@") {
		return "", "", false
	}
	key, value, _ = strings.Cut(strings.TrimSpace(t[2:]), " ")
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// BlockCommentStart opens a /* ... */ block.
type BlockCommentStart struct{ placeholder }

func NewBlockCommentStart() *BlockCommentStart {
	c := &BlockCommentStart{placeholder{Base: NewBase("/*"), kind: KindBlockCommentStart}}
	c.status.ForceAll(status.Success)
	return c
}

// BlockCommentEnd closes a /* ... */ block.
type BlockCommentEnd struct{ placeholder }

func NewBlockCommentEnd() *BlockCommentEnd {
	c := &BlockCommentEnd{placeholder{Base: NewBase("*/"), kind: KindBlockCommentEnd}}
	c.status.ForceAll(status.Success)
	return c
}

// Unknown preserves a line that could not be turned into a command. The
// reason is logged at initialization and again when execution reaches it.
type Unknown struct {
	placeholder
	reason   string
	severity status.Severity
}

// NewUnknown returns a placeholder for an unparseable (Failure) or
// unregistered (Warning) command line.
func NewUnknown(name, reason string, sev status.Severity) *Unknown {
	return &Unknown{
		placeholder: placeholder{Base: NewBase(name), kind: KindUnknown},
		reason:      reason,
		severity:    sev,
	}
}

// Reason describes why the line is unknown.
func (u *Unknown) Reason() string { return u.reason }

func (u *Unknown) Initialize(line string, proc Processor, _ bool) error {
	if err := u.Base.Initialize(line, proc, false); err != nil {
		return err
	}
	u.status.AddUnique(status.Initialization, u.record())
	return nil
}

func (u *Unknown) ValidateParameters(*Parameters) error { return nil }

func (u *Unknown) Execute(context.Context) error {
	u.status.AddUnique(status.Run, u.record())
	return nil
}

func (u *Unknown) record() status.Record {
	rec := "Check the command name and syntax."
	if u.severity < status.Failure {
		rec = "Check the command name; the line is kept but not run."
	}
	return status.Record{Severity: u.severity, Problem: u.reason, Recommendation: rec}
}
