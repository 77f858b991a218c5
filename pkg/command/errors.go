package command

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed command line.
type SyntaxError struct {
	Line    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s in %q", e.Message, strings.TrimSpace(e.Line))
}

func syntaxErrorf(line, msg string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Message: fmt.Sprintf(msg, args...)}
}

// ValidationError aggregates the parameter problems found for one command.
// Each problem has already been logged to the command's Initialization phase.
type ValidationError struct {
	Command  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid parameters: %s", e.Command, strings.Join(e.Problems, "; "))
}
