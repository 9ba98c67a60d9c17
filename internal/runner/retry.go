package runner

import (
	"context"
	"time"
)

// Policy configures retry behavior for a sequence of attempts.
//
// Backoff is geometric: the first delay is BackoffFactor seconds and each
// subsequent delay is multiplied by BackoffFactor again, so a factor of 2
// yields 2s, 4s, 8s. A factor of 0 retries with no delay.
type Policy struct {
	MaxAttempts   int
	BackoffFactor float64

	// BaseDelay, when nonzero, replaces BackoffFactor seconds as the
	// first delay; later delays still multiply by BackoffFactor.
	BaseDelay time.Duration

	// Timeout bounds each individual attempt when Run is used.
	// 0 means no per-attempt deadline.
	Timeout time.Duration

	// OnAttempt is invoked after each failed attempt that will be
	// retried, with the delay that will precede the next attempt.
	OnAttempt func(attempt int, outcome Outcome, nextDelay time.Duration)
}

// Normalize clamps a policy to its invariants: at least one attempt,
// non-negative backoff.
func (p Policy) Normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BackoffFactor < 0 {
		p.BackoffFactor = 0
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// Result is the terminal artifact of a retry sequence. ExitStatus and
// TimedOut describe the final attempt only.
type Result struct {
	Success      bool
	ExitStatus   int
	AttemptsMade int
	TimedOut     bool
}

// AttemptFunc is one unit of retriable work.
type AttemptFunc func(ctx context.Context) (Outcome, error)

// Retry invokes fn up to MaxAttempts times, sleeping the policy's backoff
// between attempts and stopping at the first exit status 0. Sleeps are
// context-aware; cancellation aborts the sequence and is the only
// condition reported through the error return. A timed-out attempt counts
// as a failed attempt like any other.
func Retry(ctx context.Context, p Policy, fn AttemptFunc) (Result, error) {
	p = p.Normalize()
	delay := p.BaseDelay
	if delay == 0 {
		delay = time.Duration(p.BackoffFactor * float64(time.Second))
	}

	for attempt := 1; ; attempt++ {
		outcome, err := fn(ctx)

		if err == nil && outcome.ExitStatus == 0 {
			return Result{Success: true, AttemptsMade: attempt}, nil
		}

		if ctx.Err() != nil {
			return Result{
				ExitStatus:   outcome.ExitStatus,
				AttemptsMade: attempt,
				TimedOut:     outcome.TimedOut,
			}, ctx.Err()
		}

		if attempt >= p.MaxAttempts {
			return Result{
				ExitStatus:   outcome.ExitStatus,
				AttemptsMade: attempt,
				TimedOut:     outcome.TimedOut,
			}, nil
		}

		if p.OnAttempt != nil {
			p.OnAttempt(attempt, outcome, delay)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return Result{
					ExitStatus:   outcome.ExitStatus,
					AttemptsMade: attempt,
					TimedOut:     outcome.TimedOut,
				}, ctx.Err()
			case <-time.After(delay):
			}
		}

		delay = time.Duration(float64(delay) * p.BackoffFactor)
	}
}

// Run executes cmd under the policy. With a nonzero policy Timeout every
// attempt runs under ExecuteWithTimeout, so each attempt is individually
// time-bounded and a final-attempt timeout surfaces as Result.TimedOut.
func Run(ctx context.Context, p Policy, cmd Command) (Result, error) {
	return Retry(ctx, p, func(ctx context.Context) (Outcome, error) {
		if p.Timeout > 0 {
			return ExecuteWithTimeout(ctx, p.Timeout, cmd)
		}
		return Execute(ctx, cmd)
	})
}
