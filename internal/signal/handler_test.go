package signal

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// raiseAfterInstall gives the handler goroutine time to register its
// channel, then sends sig to the current process.
func raiseAfterInstall(t *testing.T, sig syscall.Signal) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), sig))
}

func TestSetupSignalHandler_SignalCancelsContext(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var calls atomic.Int32
			SetupSignalHandler(ctx, cancel, func() { calls.Add(1) })

			raiseAfterInstall(t, sig)

			select {
			case <-ctx.Done():
				assert.Equal(t, context.Canceled, ctx.Err())
			case <-time.After(2 * time.Second):
				t.Fatal("context was not cancelled after signal")
			}
			assert.Eventually(t, func() bool { return calls.Load() == 1 },
				time.Second, 10*time.Millisecond, "onInterrupt should run exactly once")
		})
	}
}

func TestSetupSignalHandler_ContextCancellationSkipsCallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	SetupSignalHandler(ctx, cancel, func() { calls.Add(1) })

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(100 * time.Millisecond)

	assert.Zero(t, calls.Load(), "onInterrupt is for signals, not ordinary cancellation")
}

func TestSetupSignalHandler_NilCallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	SetupSignalHandler(ctx, cancel, nil)
	raiseAfterInstall(t, syscall.SIGINT)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled with nil callback")
	}
}
