// Package exitcode defines named exit codes for the saferun CLI.
//
// Each code maps a specific termination condition to a numeric value
// recognized by the shell scripts and CI pipelines that invoke saferun.
package exitcode

import "github.com/CodexForgeBR/setup-tools/internal/runner"

// Exit code constants surfaced to the invoking shell.
const (
	Success     = 0   // Command eventually succeeded
	Error       = 1   // Invalid args, file not found, misconfiguration
	Timeout     = 124 // Retries exhausted, final attempt hit its deadline
	Interrupted = 130 // SIGINT/SIGTERM received
)

// Name returns the human-readable name for the given exit code.
// Unknown codes return "unknown".
func Name(code int) string {
	switch code {
	case Success:
		return "Success"
	case Error:
		return "Error"
	case Timeout:
		return "Timeout"
	case Interrupted:
		return "Interrupted"
	default:
		return "unknown"
	}
}

// FromResult maps a retry result to the process exit code: 0 on success,
// 124 when the final attempt timed out, otherwise the wrapped command's
// own last exit status.
func FromResult(r runner.Result) int {
	if r.Success {
		return Success
	}
	if r.TimedOut {
		return Timeout
	}
	if r.ExitStatus == 0 {
		return Error
	}
	return r.ExitStatus
}
