package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
)

// termGrace is how long a process group gets to exit after SIGTERM before
// SIGKILL is sent. Overridable in tests.
var termGrace = 5 * time.Second

// Execute runs cmd to completion with no deadline of its own. The context
// still applies: cancellation kills the command's process group.
func Execute(ctx context.Context, cmd Command) (Outcome, error) {
	return ExecuteWithTimeout(ctx, 0, cmd)
}

// ExecuteWithTimeout runs cmd in its own process group and enforces a
// wall-clock deadline. If the deadline fires first, the entire group is
// sent SIGTERM, then SIGKILL after a grace period, and the outcome reports
// TimedOut with exit status 124. A timeout of 0 disables the deadline.
//
// A nonzero exit status is a result, not an error. The returned error is
// non-nil only when the process could not be started or the context was
// canceled.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, cmd Command) (Outcome, error) {
	c := exec.Command(cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, k+"="+v)
		}
	}
	c.Stdout = cmd.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	c.Stderr = cmd.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	// Own process group, so a timeout can signal the command and every
	// subprocess it spawned in one shot.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := c.Start(); err != nil {
		return Outcome{ExitStatus: StartFailureExitStatus}, fmt.Errorf("start %s: %w", cmd.Program, err)
	}
	pgid := c.Process.Pid

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		return Outcome{ExitStatus: exitStatus(err)}, nil
	case <-deadline:
		killProcessGroup(pgid, done)
		return Outcome{ExitStatus: TimeoutExitStatus, TimedOut: true}, nil
	case <-ctx.Done():
		killProcessGroup(pgid, done)
		return Outcome{ExitStatus: CanceledExitStatus}, ctx.Err()
	}
}

// exitStatus extracts the exit code from a Wait error.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return StartFailureExitStatus
}

// killProcessGroup terminates the whole group, escalating from SIGTERM to
// SIGKILL when the group survives the grace period, then reaps the direct
// child. An already-gone group is the goal state, so ESRCH is ignored;
// any other signal failure is a warning, never an error.
func killProcessGroup(pgid int, done <-chan error) {
	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		logging.Warn(fmt.Sprintf("could not signal process group %d: %v", pgid, err))
	}

	select {
	case <-done:
		return
	case <-time.After(termGrace):
	}

	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		logging.Warn(fmt.Sprintf("could not kill process group %d: %v", pgid, err))
	}
	<-done
}
