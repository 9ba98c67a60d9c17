package gitops

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
	"github.com/CodexForgeBR/setup-tools/internal/runner"
)

// Default remote-probe schedule: 3 attempts with doubling delays (2s, 4s).
const (
	DefaultProbeAttempts  = 3
	DefaultProbeBaseDelay = 2 * time.Second
)

// ProbePolicy builds the remote-reachability schedule: attempts with
// doubling delays starting at baseDelay. It is deliberately a separate,
// stricter policy than whatever general retry policy the caller
// configured; network probes keep their own schedule.
func ProbePolicy(attempts int, baseDelay time.Duration) runner.Policy {
	return runner.Policy{
		MaxAttempts:   attempts,
		BackoffFactor: 2,
		BaseDelay:     baseDelay,
		OnAttempt:     runner.AttemptLogger("remote probe"),
	}.Normalize()
}

// DefaultProbePolicy is ProbePolicy with the default schedule.
func DefaultProbePolicy() runner.Policy {
	return ProbePolicy(DefaultProbeAttempts, DefaultProbeBaseDelay)
}

// CheckRemoteAccess probes whether the remote at url is reachable, using a
// lightweight ls-remote under the given probe policy.
func CheckRemoteAccess(ctx context.Context, url string, p runner.Policy) (runner.Result, error) {
	if url == "" {
		return runner.Result{}, fmt.Errorf("repository URL cannot be empty")
	}

	logging.Info(fmt.Sprintf("checking remote access to %s", url))
	cmd := runner.Command{
		Program: "git",
		Args:    []string{"ls-remote", "--heads", url},
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	return runner.Run(ctx, p, cmd)
}
