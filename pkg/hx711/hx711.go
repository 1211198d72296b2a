// Package hx711 implements the two-wire serial protocol of HX711-class
// 24-bit load-cell converters.
//
// The converter pulls its data line low when a conversion is ready. The host
// then clocks 24 bits out MSB first, followed by 1 to 3 extra pulses that pick
// the input channel and gain of the next conversion. If the clock is held
// high for more than 60µs the chip powers down, so the whole transfer runs
// inside a guard.Guard region.
package hx711

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/goscale/pkg/guard"
	"github.com/itohio/goscale/pkg/lines"
)

const (
	// Bits is the width of one sample.
	Bits = 24
	// PowerDownHold is how long PowerDown holds the clock high.
	PowerDownHold = 80 * time.Microsecond
)

var (
	// ErrReadTimeout is returned when the converter does not signal ready
	// within the poll budget.
	ErrReadTimeout = errors.New("hx711: read timeout")
	// ErrNotReady is returned by Read when no conversion is available.
	ErrNotReady = errors.New("hx711: not ready")
)

// Timing holds the minimum clock high and low durations of one pulse.
type Timing struct {
	High time.Duration
	Low  time.Duration
}

// DefaultTiming satisfies the datasheet minimum of 0.2µs with margin while
// staying far below the 60µs power-down threshold.
var DefaultTiming = Timing{High: time.Microsecond, Low: time.Microsecond}

// Poll bounds how long WaitReady waits for a conversion.
type Poll struct {
	Attempts int           // Number of readiness checks (minimum 1)
	Interval time.Duration // Pause between checks
}

// DefaultPoll waits up to about one second, enough for a 10 SPS conversion.
var DefaultPoll = Poll{Attempts: 100, Interval: 10 * time.Millisecond}

// Config configures a Device. Zero fields take their defaults.
type Config struct {
	Gain   Gain
	Timing Timing
	Guard  guard.Guard
}

// Device reads samples from a converter over a pair of lines.
// It is not safe for concurrent use.
type Device struct {
	lines  lines.Lines
	guard  guard.Guard
	gain   Gain
	timing Timing
	state  State
}

// New creates a Device on l. The configured gain applies from the conversion
// after the first read.
func New(l lines.Lines, cfg Config) (*Device, error) {
	if l == nil {
		return nil, errors.New("hx711: nil lines")
	}
	if cfg.Gain == 0 {
		cfg.Gain = GainA128
	}
	if !cfg.Gain.Valid() {
		return nil, fmt.Errorf("hx711: invalid gain %d", int(cfg.Gain))
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming
	}
	if cfg.Guard == nil {
		cfg.Guard = guard.Default()
	}

	return &Device{
		lines:  l,
		guard:  cfg.Guard,
		gain:   cfg.Gain,
		timing: cfg.Timing,
		state:  NotReady,
	}, nil
}

// Gain returns the configured gain.
func (d *Device) Gain() Gain {
	return d.gain
}

// SetGain changes the gain. It is latched by the trailing pulses of the next
// Read and so applies to the conversion after that.
func (d *Device) SetGain(g Gain) error {
	if !g.Valid() {
		return fmt.Errorf("hx711: invalid gain %d", int(g))
	}
	d.gain = g
	return nil
}

// State returns the protocol state after the last operation.
func (d *Device) State() State {
	return d.state
}

// IsReady polls the data line once. A line error counts as not ready.
func (d *Device) IsReady() bool {
	high, err := d.lines.ReadData()
	if err != nil || high {
		d.state = NotReady
		return false
	}
	d.state = Ready
	return true
}

// WaitReady polls for readiness at most p.Attempts times, pausing
// p.Interval between checks. It gives up early when ctx is done.
func (d *Device) WaitReady(ctx context.Context, p Poll) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var timer *time.Timer
	for i := 0; i < attempts; i++ {
		if d.IsReady() {
			return nil
		}
		if i == attempts-1 {
			break
		}

		if timer == nil {
			timer = time.NewTimer(p.Interval)
			defer timer.Stop()
		} else {
			timer.Reset(p.Interval)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrReadTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrReadTimeout, attempts)
}

// Read shifts one sample out of the converter. Readiness must have been
// observed first (IsReady or WaitReady); otherwise the line is checked once
// and ErrNotReady returned if no conversion is available.
//
// Once started the transfer always runs to completion; it cannot be
// cancelled.
func (d *Device) Read() (Raw, error) {
	if d.state != Ready && !d.IsReady() {
		return 0, ErrNotReady
	}

	var (
		word uint32
		err  error
	)
	d.state = Transferring
	d.guard.Do(func() {
		word, err = d.shift()
	})
	if err != nil {
		d.state = NotReady
		return 0, fmt.Errorf("hx711: transfer: %w", err)
	}

	d.state = Done
	return Decode(word), nil
}

// shift clocks in the data bits and the gain pulses.
func (d *Device) shift() (uint32, error) {
	var word uint32
	for i := 0; i < Bits; i++ {
		high, err := d.pulse(true)
		if err != nil {
			return 0, err
		}
		word <<= 1
		if high {
			word |= 1
		}
	}

	for i := 0; i < d.gain.Pulses(); i++ {
		if _, err := d.pulse(false); err != nil {
			return 0, err
		}
	}

	return word, nil
}

// pulse drives one clock pulse, sampling the data line while the clock is high.
func (d *Device) pulse(sample bool) (bool, error) {
	if err := d.lines.SetClock(true); err != nil {
		return false, err
	}
	d.lines.Delay(d.timing.High)

	var (
		high bool
		err  error
	)
	if sample {
		high, err = d.lines.ReadData()
	}
	// Always bring the clock back low, even on a read error, or the chip
	// powers down.
	if cerr := d.lines.SetClock(false); cerr != nil && err == nil {
		err = cerr
	}
	d.lines.Delay(d.timing.Low)

	return high, err
}

// PowerDown holds the clock high until the converter enters power-down.
func (d *Device) PowerDown() error {
	if err := d.lines.SetClock(true); err != nil {
		return fmt.Errorf("hx711: power down: %w", err)
	}
	d.lines.Delay(PowerDownHold)
	d.state = NotReady
	return nil
}

// PowerUp releases the clock. The chip wakes with channel A gain 128; the
// configured gain is restored by the trailing pulses of the next Read.
func (d *Device) PowerUp() error {
	if err := d.lines.SetClock(false); err != nil {
		return fmt.Errorf("hx711: power up: %w", err)
	}
	d.state = NotReady
	return nil
}
