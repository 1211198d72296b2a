package sample

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestStream_GracefulShutdown tests that an unbounded stream closes its
// channel when the context is cancelled.
func TestStream_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{}
	out := Stream(ctx, src, time.Millisecond, 0, 1)

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range out {
			received++
			if received == 3 {
				cancel()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stream channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3, "Should receive samples before channel closes")

	_, ok := <-out
	assert.False(t, ok, "Channel should be closed")
}

// TestStream_CancelledBeforeStart tests that a stream on a done context
// closes without reading.
func TestStream_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{}
	for range Stream(ctx, src, time.Millisecond, 5, 0) {
	}

	assert.Equal(t, 0, src.calls)
}
