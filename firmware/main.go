//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	"github.com/itohio/goscale/pkg/guard"
	"github.com/itohio/goscale/pkg/hx711"
	"github.com/itohio/goscale/pkg/retain"
	"github.com/itohio/goscale/pkg/sample"
	"github.com/itohio/goscale/pkg/scale"
)

var (
	uart = machine.UART0

	// cell lives in RAM that is kept across sleep but lost on power-on
	cell retain.Memory

	// Serial buffer for reading commands
	serialBuffer [8]byte
	serialPos    int
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	s, err := scale.New(newPinLines(PIN_CLOCK, PIN_DATA), CALIBRATION_FACTOR,
		scale.WithGuard(guard.Default()),
		scale.WithPoll(hx711.Poll{Attempts: POLL_ATTEMPTS, Interval: POLL_INTERVAL_MS * time.Millisecond}),
	)
	if err != nil {
		println("scale:", err.Error())
		return
	}

	ctx := context.Background()
	for {
		if err := s.Device().PowerUp(); err != nil {
			println("power up:", err.Error())
		}

		if _, err := scale.Resume(ctx, s, &cell, TARE_SAMPLES); err != nil {
			println("boot:", err.Error())
		}

		for i := 0; i < ITERATIONS; i++ {
			processSerial(ctx, s)

			smp, err := s.Sample(ctx)
			switch {
			case errors.Is(err, hx711.ErrReadTimeout):
				println("not ready")
			case err != nil:
				println("read:", err.Error())
			default:
				outputSample(smp)
			}

			time.Sleep(SAMPLE_INTERVAL_S * time.Second)
		}

		if err := s.Device().PowerDown(); err != nil {
			println("power down:", err.Error())
		}
		time.Sleep(SLEEP_S * time.Second)
	}
}

// outputSample prints "unix_micros,raw,weight\n".
func outputSample(smp sample.Sample) {
	print(smp.Timestamp.UnixMicro())
	print(",")
	print(smp.Raw)
	print(",")
	print(smp.Weight)
	print("\n")
}

// processSerial handles "t" (tare now) and "f" (forget the offset) commands.
func processSerial(ctx context.Context, s *scale.Scale) {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		// Check for newline (end of line)
		if data == '\n' || data == '\r' {
			if serialPos == 1 {
				runCommand(ctx, s, serialBuffer[0])
			}
			serialPos = 0
			continue
		}

		// Ignore whitespace
		if data == ' ' || data == '\t' {
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		}
	}
}

func runCommand(ctx context.Context, s *scale.Scale, cmd byte) {
	switch cmd {
	case 't':
		if err := s.Tare(ctx, TARE_SAMPLES); err != nil {
			println("tare:", err.Error())
			return
		}
		cell.Store(retain.State{Offset: s.Offset(), Calibrated: true})
		println("offset:", s.Offset())
	case 'f':
		cell.PowerCycle()
		println("offset forgotten")
	}
}
