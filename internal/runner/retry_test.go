package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingAttempt(status int) AttemptFunc {
	return func(ctx context.Context) (Outcome, error) {
		return Outcome{ExitStatus: status}, nil
	}
}

func TestRetry_Exhaustion(t *testing.T) {
	t.Run("performs exactly MaxAttempts invocations on persistent failure", func(t *testing.T) {
		attempts := 0
		p := Policy{MaxAttempts: 3, BackoffFactor: 0}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			return Outcome{ExitStatus: 1}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.ExitStatus)
		assert.Equal(t, 3, result.AttemptsMade)
	})

	t.Run("MaxAttempts of 1 means exactly one execution", func(t *testing.T) {
		attempts := 0
		p := Policy{MaxAttempts: 1, BackoffFactor: 2}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			return Outcome{ExitStatus: 5}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, result.AttemptsMade)
		assert.Equal(t, 5, result.ExitStatus)
	})

	t.Run("zero MaxAttempts is clamped to one", func(t *testing.T) {
		attempts := 0
		p := Policy{MaxAttempts: 0, BackoffFactor: 0}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			return Outcome{ExitStatus: 1}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, result.AttemptsMade)
	})
}

func TestRetry_FirstSuccessShortCircuit(t *testing.T) {
	t.Run("stops at first success", func(t *testing.T) {
		attempts := 0
		p := Policy{MaxAttempts: 5, BackoffFactor: 0}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			if attempts < 3 {
				return Outcome{ExitStatus: 1}, nil
			}
			return Outcome{}, nil
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 3, attempts, "should stop on the third attempt, not run all five")
		assert.Equal(t, 3, result.AttemptsMade)
		assert.Equal(t, 0, result.ExitStatus)
	})

	t.Run("immediate success makes exactly one invocation", func(t *testing.T) {
		attempts := 0
		onAttemptCalled := false
		p := Policy{
			MaxAttempts:   5,
			BackoffFactor: 2,
			OnAttempt: func(attempt int, outcome Outcome, nextDelay time.Duration) {
				onAttemptCalled = true
			},
		}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			return Outcome{}, nil
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, attempts)
		assert.False(t, onAttemptCalled, "OnAttempt should not fire on immediate success")
	})
}

func TestRetry_GeometricBackoff(t *testing.T) {
	t.Run("first delay equals BackoffFactor seconds", func(t *testing.T) {
		var firstDelay time.Duration
		p := Policy{
			MaxAttempts:   2,
			BackoffFactor: 0.05,
			OnAttempt: func(attempt int, outcome Outcome, nextDelay time.Duration) {
				if firstDelay == 0 {
					firstDelay = nextDelay
				}
			},
		}

		_, err := Retry(context.Background(), p, failingAttempt(1))
		require.NoError(t, err)
		assert.Equal(t, 50*time.Millisecond, firstDelay)
	})

	t.Run("each delay is the previous multiplied by the factor", func(t *testing.T) {
		delays := []time.Duration{}
		p := Policy{
			MaxAttempts:   4,
			BackoffFactor: 0.05,
			OnAttempt: func(attempt int, outcome Outcome, nextDelay time.Duration) {
				delays = append(delays, nextDelay)
			},
		}

		_, err := Retry(context.Background(), p, failingAttempt(1))
		require.NoError(t, err)

		require.Len(t, delays, 3)
		for i := 1; i < len(delays); i++ {
			assert.InDelta(t, float64(delays[i-1])*0.05, float64(delays[i]),
				float64(time.Millisecond), "delay should grow geometrically")
		}
	})

	t.Run("BaseDelay overrides the first delay only", func(t *testing.T) {
		delays := []time.Duration{}
		p := Policy{
			MaxAttempts:   3,
			BackoffFactor: 2,
			BaseDelay:     10 * time.Millisecond,
			OnAttempt: func(attempt int, outcome Outcome, nextDelay time.Duration) {
				delays = append(delays, nextDelay)
			},
		}

		_, err := Retry(context.Background(), p, failingAttempt(1))
		require.NoError(t, err)

		require.Len(t, delays, 2)
		assert.Equal(t, 10*time.Millisecond, delays[0])
		assert.Equal(t, 20*time.Millisecond, delays[1])
	})

	t.Run("zero factor retries with no delay", func(t *testing.T) {
		p := Policy{MaxAttempts: 5, BackoffFactor: 0}

		start := time.Now()
		result, err := Retry(context.Background(), p, failingAttempt(1))
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, 5, result.AttemptsMade)
		assert.Less(t, elapsed, 500*time.Millisecond, "busy retry should not sleep")
	})

	t.Run("negative factor is clamped to zero", func(t *testing.T) {
		p := Policy{MaxAttempts: 3, BackoffFactor: -1}

		start := time.Now()
		result, err := Retry(context.Background(), p, failingAttempt(1))
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, 3, result.AttemptsMade)
		assert.Less(t, elapsed, 500*time.Millisecond)
	})
}

func TestRetry_ContextCancellation(t *testing.T) {
	t.Run("returns quickly when cancelled during backoff sleep", func(t *testing.T) {
		p := Policy{MaxAttempts: 5, BackoffFactor: 10}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		result, err := Retry(ctx, p, failingAttempt(1))
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.Equal(t, context.Canceled, err)
		assert.False(t, result.Success)
		assert.Less(t, elapsed, 2*time.Second, "should abort the 10s backoff sleep")
	})

	t.Run("pre-cancelled context aborts after the in-flight attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		attempts := 0
		p := Policy{MaxAttempts: 5, BackoffFactor: 0}
		_, err := Retry(ctx, p, func(ctx context.Context) (Outcome, error) {
			attempts++
			return Outcome{ExitStatus: 1}, nil
		})

		require.Error(t, err)
		assert.Equal(t, context.Canceled, err)
		assert.Equal(t, 1, attempts)
	})
}

func TestRetry_TimedOutFlagReflectsLastAttempt(t *testing.T) {
	t.Run("timeout on a non-final attempt is not reported", func(t *testing.T) {
		attempts := 0
		p := Policy{MaxAttempts: 2, BackoffFactor: 0}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			attempts++
			if attempts == 1 {
				return Outcome{ExitStatus: TimeoutExitStatus, TimedOut: true}, nil
			}
			return Outcome{ExitStatus: 1}, nil
		})

		require.NoError(t, err)
		assert.False(t, result.TimedOut, "flag must describe the final attempt only")
		assert.Equal(t, 1, result.ExitStatus)
	})

	t.Run("timeout on the final attempt is reported", func(t *testing.T) {
		p := Policy{MaxAttempts: 2, BackoffFactor: 0}

		result, err := Retry(context.Background(), p, func(ctx context.Context) (Outcome, error) {
			return Outcome{ExitStatus: TimeoutExitStatus, TimedOut: true}, nil
		})

		require.NoError(t, err)
		assert.True(t, result.TimedOut)
		assert.Equal(t, TimeoutExitStatus, result.ExitStatus)
	})
}

// ---------------------------------------------------------------------------
// Run: real subprocess scenarios
// ---------------------------------------------------------------------------

func TestRun_FailingCommandExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BackoffFactor: 0}
	cmd := Command{Program: "sh", Args: []string{"-c", "exit 1"}}

	result, err := Run(context.Background(), p, cmd)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.AttemptsMade)
	assert.Equal(t, 1, result.ExitStatus)
	assert.False(t, result.TimedOut)
}

func TestRun_SucceedingCommandRunsOnce(t *testing.T) {
	p := Policy{MaxAttempts: 3, BackoffFactor: 1}
	cmd := Command{Program: "true"}

	result, err := Run(context.Background(), p, cmd)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AttemptsMade)
	assert.Equal(t, 0, result.ExitStatus)
}

func TestRun_MissingBinaryReportsStartFailure(t *testing.T) {
	p := Policy{MaxAttempts: 2, BackoffFactor: 0}
	cmd := Command{Program: "saferun-no-such-binary"}

	result, err := Run(context.Background(), p, cmd)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.AttemptsMade)
	assert.Equal(t, StartFailureExitStatus, result.ExitStatus)
}

func TestRun_ComposedTimeoutRespectsBothBounds(t *testing.T) {
	restore := termGrace
	termGrace = 100 * time.Millisecond
	defer func() { termGrace = restore }()

	p := Policy{MaxAttempts: 3, BackoffFactor: 0, Timeout: 150 * time.Millisecond}
	cmd := Command{Program: "sh", Args: []string{"-c", "sleep 10"}}

	start := time.Now()
	result, err := Run(context.Background(), p, cmd)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.AttemptsMade, "every attempt should time out and be retried")
	assert.True(t, result.TimedOut)
	assert.Equal(t, TimeoutExitStatus, result.ExitStatus)
	assert.Less(t, elapsed, 5*time.Second, "attempts must be cut at the deadline, not run for 10s")
}
