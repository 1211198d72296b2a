//go:build !tinygo

package lines

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Ensure Periph implements Lines.
var _ Lines = (*Periph)(nil)

// Periph drives the clock and data lines through periph.io pins.
type Periph struct {
	clock gpio.PinIO
	data  gpio.PinIO
}

// NewPeriph initializes the periph host drivers and acquires the named pins
// (e.g. "GPIO3" for clock, "GPIO2" for data). The clock is driven low.
func NewPeriph(clock, data string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %v", ErrUnavailable, err)
	}

	clk := gpioreg.ByName(clock)
	if clk == nil {
		return nil, fmt.Errorf("%w: no such pin %q", ErrUnavailable, clock)
	}
	dat := gpioreg.ByName(data)
	if dat == nil {
		return nil, fmt.Errorf("%w: no such pin %q", ErrUnavailable, data)
	}

	if err := clk.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: clock pin %s: %v", ErrUnavailable, clock, err)
	}
	if err := dat.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: data pin %s: %v", ErrUnavailable, data, err)
	}

	return &Periph{clock: clk, data: dat}, nil
}

// SetClock drives the clock pin.
func (p *Periph) SetClock(high bool) error {
	return p.clock.Out(gpio.Level(high))
}

// ReadData samples the data pin.
func (p *Periph) ReadData() (bool, error) {
	return bool(p.data.Read()), nil
}

// Delay busy-waits for d.
func (p *Periph) Delay(d time.Duration) {
	Spin(d)
}

// Close leaves the clock low and halts both pins.
func (p *Periph) Close() error {
	return errors.Join(
		p.clock.Out(gpio.Low),
		p.clock.Halt(),
		p.data.Halt(),
	)
}
