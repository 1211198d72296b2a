package lines

import (
	"errors"
	"time"
)

// ErrUnavailable is returned when the clock or data line cannot be acquired.
var ErrUnavailable = errors.New("lines unavailable")

// Lines defines the two digital lines of a bit-banged converter (real or simulated).
type Lines interface {
	SetClock(high bool) error
	ReadData() (high bool, err error)
	Delay(d time.Duration)
	Close() error
}

// Ensure Sim implements Lines.
var _ Lines = (*Sim)(nil)

// spinThreshold is the longest delay that is busy-waited instead of slept.
const spinThreshold = 100 * time.Microsecond

// Spin blocks for d. Short delays busy-wait since the scheduler cannot
// sleep with microsecond precision.
func Spin(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= spinThreshold {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
