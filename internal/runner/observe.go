package runner

import (
	"fmt"
	"time"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
)

// AttemptLogger returns an OnAttempt callback that logs each failed
// attempt of the named operation, distinguishing timeouts from plain
// failures so callers can see which deadline was hit.
func AttemptLogger(op string) func(attempt int, outcome Outcome, nextDelay time.Duration) {
	return func(attempt int, outcome Outcome, nextDelay time.Duration) {
		reason := fmt.Sprintf("exit status %d", outcome.ExitStatus)
		if outcome.TimedOut {
			reason = "timed out"
		}
		logging.Warn(fmt.Sprintf("%s failed on attempt %d (%s), retrying in %s",
			op, attempt, reason, nextDelay))
	}
}
