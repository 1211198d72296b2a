//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/itohio/goscale/pkg/lines"
)

// pinLines drives the converter through two machine pins.
type pinLines struct {
	clock machine.Pin
	data  machine.Pin
}

var _ lines.Lines = (*pinLines)(nil)

func newPinLines(clock, data machine.Pin) *pinLines {
	clock.Configure(machine.PinConfig{Mode: machine.PinOutput})
	clock.Low()
	data.Configure(machine.PinConfig{Mode: machine.PinInput})
	return &pinLines{clock: clock, data: data}
}

func (p *pinLines) SetClock(high bool) error {
	p.clock.Set(high)
	return nil
}

func (p *pinLines) ReadData() (bool, error) {
	return p.data.Get(), nil
}

func (p *pinLines) Delay(d time.Duration) {
	lines.Spin(d)
}

// Close leaves the clock high, which powers the converter down.
func (p *pinLines) Close() error {
	p.clock.High()
	return nil
}
