// Package runner executes external commands with per-attempt timeouts and
// backoff-based retries.
//
// Commands are always carried as a structured argument vector; nothing in
// this package builds a command line as text to be re-parsed by a shell.
package runner

import (
	"io"
	"strings"
)

// Exit statuses with reserved meaning in results.
const (
	// TimeoutExitStatus marks an attempt that was killed at its deadline,
	// matching the conventional timeout(1) exit code.
	TimeoutExitStatus = 124

	// StartFailureExitStatus marks an attempt whose process could not be
	// started at all (missing binary, permission), matching the shell
	// "command not found" convention.
	StartFailureExitStatus = 127

	// CanceledExitStatus marks an attempt interrupted by context
	// cancellation, matching the shell convention for SIGINT.
	CanceledExitStatus = 130
)

// Command is a structured argument vector plus optional execution context.
type Command struct {
	Program string
	Args    []string

	// Dir is the working directory; empty means the caller's.
	Dir string

	// Env holds additional environment variables layered over the
	// process environment.
	Env map[string]string

	// Stdout and Stderr default to the invoking process's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command for log lines only. The rendered form is
// never re-executed.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Outcome is the result of a single execution attempt.
type Outcome struct {
	ExitStatus int
	TimedOut   bool
}
