package sample

import (
	"context"
	"time"
)

// DefaultBufferSize is the default size of the Stream output buffer.
const DefaultBufferSize = 16

// Stream reads count samples from src, pausing interval between reads, and
// delivers them on the returned channel. A count of 0 reads until ctx is done.
// Failed reads are delivered with Err set and do not stop the stream.
//
// The channel is closed when count samples were attempted or ctx is done.
// The stream goroutine owns src while it runs.
func Stream(ctx context.Context, src Source, interval time.Duration, count int, bufSize int) <-chan Reading {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	out := make(chan Reading, bufSize)

	go func() {
		defer close(out)

		timer := time.NewTimer(interval)
		timer.Stop()
		defer timer.Stop()

		for i := 0; count == 0 || i < count; i++ {
			if i > 0 {
				timer.Reset(interval)
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
				}
			}
			if ctx.Err() != nil {
				return
			}

			s, err := src.Sample(ctx)
			select {
			case out <- Reading{Sample: s, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
