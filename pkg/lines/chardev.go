//go:build linux && !tinygo

package lines

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Ensure Chardev implements Lines.
var _ Lines = (*Chardev)(nil)

// Chardev drives the clock and data lines through the Linux GPIO character device.
type Chardev struct {
	clock *gpiocdev.Line
	data  *gpiocdev.Line
}

// NewChardev requests the clock and data line offsets on chip (e.g. "gpiochip0").
// The clock is requested as an output driven low.
func NewChardev(chip string, clock, data int) (*Chardev, error) {
	clk, err := gpiocdev.RequestLine(chip, clock,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("goscale-clock"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s line %d: %v", ErrUnavailable, chip, clock, err)
	}

	dat, err := gpiocdev.RequestLine(chip, data,
		gpiocdev.AsInput,
		gpiocdev.WithConsumer("goscale-data"))
	if err != nil {
		clk.Close()
		return nil, fmt.Errorf("%w: %s line %d: %v", ErrUnavailable, chip, data, err)
	}

	return &Chardev{clock: clk, data: dat}, nil
}

// SetClock drives the clock line.
func (c *Chardev) SetClock(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return c.clock.SetValue(v)
}

// ReadData samples the data line.
func (c *Chardev) ReadData() (bool, error) {
	v, err := c.data.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Delay busy-waits for d.
func (c *Chardev) Delay(d time.Duration) {
	Spin(d)
}

// Close releases both lines, leaving the clock low.
func (c *Chardev) Close() error {
	return errors.Join(
		c.clock.SetValue(0),
		c.clock.Close(),
		c.data.Close(),
	)
}
