// Package shell implements the interactive command shell: command lines
// are parsed and run as they are entered, and For/If blocks run once their
// outermost End line arrives.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/processor"
)

var metaCommands = []string{":list", ":status", ":props", ":format", ":save", ":run", ":clear", ":help", ":quit"}

// Shell reads command lines and runs them on one processor.
type Shell struct {
	proc   *processor.Processor
	output io.Writer
	styled bool

	// start is the index of the first command of the open block; depth is
	// the number of open For/If blocks.
	start   int
	depth   int
	comment bool
}

// New creates a shell over proc. Shell messages go to os.Stdout.
func New(proc *processor.Processor) *Shell {
	return &Shell{proc: proc, output: os.Stdout, styled: true}
}

// SetOutput redirects shell messages and disables styling.
func (s *Shell) SetOutput(w io.Writer) {
	s.output = w
	s.styled = false
}

// Run starts the interactive loop; it returns on :quit, EOF or interrupt.
func (s *Shell) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, m := range metaCommands {
		completer.Children = append(completer.Children, readline.PcItem(m))
	}
	for _, name := range command.Default.Names() {
		completer.Children = append(completer.Children, readline.PcItem(name+"("))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.output, "gp shell, %d commands registered\n", len(command.Default.Names()))
	fmt.Fprintf(s.output, "Type ':help' for shell commands.\n\n")

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if s.Handle(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Shell) prompt() string {
	if s.Pending() {
		return "gp" + strings.Repeat(".", s.depth+2) + " "
	}
	return fmt.Sprintf("gp[%d]> ", len(s.proc.Commands()))
}

// Handle processes one input line and reports whether the shell should
// exit.
func (s *Shell) Handle(ctx context.Context, line string) bool {
	t := strings.TrimSpace(line)
	if !s.Pending() {
		if t == "" {
			return false
		}
		if strings.HasPrefix(t, ":") {
			return s.meta(ctx, strings.Fields(t))
		}
		s.start = len(s.proc.Commands())
	}

	c := s.proc.Append(line)
	switch k := c.Kind(); {
	case s.comment:
		s.comment = k != command.KindBlockCommentEnd
	case k == command.KindBlockCommentStart:
		s.comment = true
	case k == command.KindFor || k == command.KindIf:
		s.depth++
	case k == command.KindEndFor || k == command.KindEndIf:
		s.depth--
	}
	if s.Pending() {
		return false
	}
	s.depth = 0
	s.runBlock(ctx)
	return false
}

// runBlock runs the commands entered since start. A block that cannot run
// is dropped so later runs of the whole list are not affected.
func (s *Shell) runBlock(ctx context.Context) {
	cmds := s.proc.Commands()[s.start:]
	if err := s.proc.Run(ctx, cmds); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		if !errors.Is(err, context.Canceled) {
			s.proc.Truncate(s.start)
		}
		return
	}
	s.summarize(cmds)
}

// Pending reports whether a block is open.
func (s *Shell) Pending() bool { return s.depth > 0 || s.comment }
