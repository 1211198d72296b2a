package hx711

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itohio/goscale/pkg/guard"
	"github.com/itohio/goscale/pkg/lines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T, l lines.Lines, gain Gain) *Device {
	t.Helper()
	d, err := New(l, Config{Gain: gain, Guard: guard.Nop})
	require.NoError(t, err)
	return d
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		want Raw
	}{
		{name: "zero", word: 0x000000, want: 0},
		{name: "max positive", word: 0x7FFFFF, want: 8388607},
		{name: "min negative", word: 0x800000, want: -8388608},
		{name: "minus one", word: 0xFFFFFF, want: -1},
		{name: "small positive", word: 0x000FA0, want: 4000},
		{name: "small negative", word: 0xFFF060, want: -4000},
		{name: "upper byte ignored", word: 0xAB000001, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.word))
		})
	}

	assert.Equal(t, MaxRaw, Decode(0x7FFFFF))
	assert.Equal(t, MinRaw, Decode(0x800000))
}

func TestEncodeDecode_AllSignBoundaries(t *testing.T) {
	for _, r := range []Raw{MinRaw, MinRaw + 1, -1, 0, 1, MaxRaw - 1, MaxRaw} {
		assert.Equal(t, r, Decode(Encode(r)), "raw %d", r)
	}
}

func TestParseGain(t *testing.T) {
	tests := []struct {
		in      int
		want    Gain
		wantErr bool
	}{
		{in: 128, want: GainA128},
		{in: 64, want: GainA64},
		{in: 32, want: GainB32},
		{in: 0, wantErr: true},
		{in: 16, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseGain(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "gain %d", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)

	_, err = New(lines.NewSim(), Config{Gain: 4})
	assert.Error(t, err)

	d, err := New(lines.NewSim(), Config{})
	require.NoError(t, err)
	assert.Equal(t, GainA128, d.Gain())
	assert.Equal(t, DefaultTiming, d.timing)
	assert.NotNil(t, d.guard)
	assert.Equal(t, NotReady, d.State())
}

func TestDevice_IsReady(t *testing.T) {
	sim := lines.NewSim()
	d := newDevice(t, sim, GainA128)

	assert.False(t, d.IsReady())
	assert.Equal(t, NotReady, d.State())

	sim.Push(0x000001)
	assert.True(t, d.IsReady())
	assert.Equal(t, Ready, d.State())
}

func TestDevice_Read(t *testing.T) {
	words := []uint32{0x000000, 0x7FFFFF, 0x800000, 0xFFFFFF, 0x000FA0}
	sim := lines.NewSim(words...)
	d := newDevice(t, sim, GainA128)

	for _, w := range words {
		require.True(t, d.IsReady())
		got, err := d.Read()
		require.NoError(t, err)
		assert.Equal(t, Decode(w), got)
		assert.Equal(t, Done, d.State())
	}

	_, err := d.Read()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestDevice_GainPulses(t *testing.T) {
	for _, g := range []Gain{GainA128, GainB32, GainA64} {
		t.Run(g.String(), func(t *testing.T) {
			sim := lines.NewSim(0x000123, 0x000456)
			d := newDevice(t, sim, g)

			_, err := d.Read()
			require.NoError(t, err)
			assert.Equal(t, Bits+g.Pulses(), sim.Edges())
			assert.Equal(t, g.Pulses(), sim.Gain())
		})
	}
}

func TestDevice_SetGain(t *testing.T) {
	sim := lines.NewSim()
	sim.Hold(0x000100)
	d := newDevice(t, sim, GainA128)

	assert.Error(t, d.SetGain(0))
	require.NoError(t, d.SetGain(GainB32))

	_, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, sim.Gain())
}

func TestDevice_WaitReady(t *testing.T) {
	sim := lines.NewSim(0x000042)
	d := newDevice(t, sim, GainA128)

	require.NoError(t, d.WaitReady(context.Background(), Poll{Attempts: 1}))
	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, Raw(0x42), got)
}

func TestDevice_WaitReady_Timeout(t *testing.T) {
	d := newDevice(t, lines.NewSim(), GainA128)

	start := time.Now()
	err := d.WaitReady(context.Background(), Poll{Attempts: 5, Interval: time.Millisecond})
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Less(t, time.Since(start), time.Second)

	// A zero budget still checks once
	err = d.WaitReady(context.Background(), Poll{})
	assert.ErrorIs(t, err, ErrReadTimeout)
}

func TestDevice_WaitReady_ContextCancelled(t *testing.T) {
	d := newDevice(t, lines.NewSim(), GainA128)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.WaitReady(ctx, Poll{Attempts: 1000000, Interval: time.Millisecond})
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDevice_WaitReady_BecomesReady(t *testing.T) {
	sim := lines.NewSim()
	d := newDevice(t, sim, GainA128)

	go func() {
		time.Sleep(10 * time.Millisecond)
		sim.Push(0x000007)
	}()

	require.NoError(t, d.WaitReady(context.Background(), Poll{Attempts: 200, Interval: time.Millisecond}))
	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, Raw(7), got)
}

func TestDevice_PowerCycle(t *testing.T) {
	sim := lines.NewSim()
	sim.Hold(0x000010)
	d := newDevice(t, sim, GainA64)

	_, err := d.Read()
	require.NoError(t, err)
	require.Equal(t, 3, sim.Gain())

	require.NoError(t, d.PowerDown())
	assert.True(t, sim.Asleep())
	assert.False(t, d.IsReady())

	require.NoError(t, d.PowerUp())
	assert.Equal(t, 1, sim.Sleeps())
	assert.Equal(t, 1, sim.Gain(), "chip wakes at channel A gain 128")

	// The next read re-applies the configured gain
	_, err = d.Read()
	require.NoError(t, err)
	assert.Equal(t, 3, sim.Gain())
}

// failingLines fails SetClock after a number of calls.
type failingLines struct {
	*lines.Sim
	left int
	low  bool
}

func (f *failingLines) SetClock(high bool) error {
	if high {
		if f.left == 0 {
			return errors.New("line gone")
		}
		f.left--
	}
	f.low = !high
	return f.Sim.SetClock(high)
}

func TestDevice_ReadLineError(t *testing.T) {
	f := &failingLines{Sim: lines.NewSim(0x000001, 0x000002), left: 10}
	d := newDevice(t, f, GainA128)

	_, err := d.Read()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotReady)
	assert.Equal(t, NotReady, d.State())
	assert.True(t, f.low, "clock must be left low")
}

// countingGuard counts guarded regions entered.
type countingGuard struct {
	calls int
}

func (g *countingGuard) Do(fn func()) {
	g.calls++
	fn()
}

func TestDevice_TransferRunsInGuard(t *testing.T) {
	g := &countingGuard{}
	d, err := New(lines.NewSim(0x000001, 0x000002), Config{Guard: g})
	require.NoError(t, err)

	_, err = d.Read()
	require.NoError(t, err)
	_, err = d.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, g.calls)
}
