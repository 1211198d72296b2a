package lines

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// SimBits is the number of data bits shifted out per conversion.
	SimBits = 24
	// SimPowerDown is how long the clock must stay high before the chip powers down.
	SimPowerDown = 60 * time.Microsecond
)

// Sim simulates an HX711-class converter behind a clock and data line.
//
// Words are served in the order they were pushed. Once the queue drains the
// held word (if any) is served forever, otherwise the data line stays high and
// the chip never reports ready. Delay advances a virtual clock instead of
// sleeping so tests run at full speed.
type Sim struct {
	mu sync.Mutex

	queue []uint32
	hold  *uint32
	noise int32
	rng   *rand.Rand

	clock     bool
	highAt    time.Duration
	now       time.Duration
	pulses    int
	word      uint32
	gain      int
	closed    bool
	edges     int
	transfers int
	sleeps    int
}

// NewSim creates a simulated converter that will serve the given 24-bit words.
func NewSim(words ...uint32) *Sim {
	s := &Sim{gain: 1}
	s.Push(words...)
	return s
}

// Push queues more words to be served by subsequent conversions.
func (s *Sim) Push(words ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		s.queue = append(s.queue, w&0xFFFFFF)
	}
}

// Hold serves word for every conversion once the queue is empty.
func (s *Sim) Hold(word uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := word & 0xFFFFFF
	s.hold = &w
}

// Noise adds uniform noise of up to ±amplitude counts to held words.
func (s *Sim) Noise(amplitude int32, seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noise = amplitude
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SetClock drives the clock line. A rising edge starts a transfer when a
// conversion is ready, shifts out the next bit, or counts a gain pulse.
func (s *Sim) SetClock(high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrUnavailable
	}
	if high == s.clock {
		return nil
	}
	s.clock = high

	if high {
		s.highAt = s.now
		if s.pulses == 0 {
			if !s.available() {
				// Clocking an idle chip does nothing.
				return nil
			}
			s.word = s.next()
		}
		s.pulses++
		s.edges++
		return nil
	}

	if s.now-s.highAt >= SimPowerDown {
		s.powerDown()
	}
	return nil
}

// ReadData returns the level of the data line.
func (s *Sim) ReadData() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrUnavailable
	}
	if s.sleeping() {
		return true, nil
	}

	switch {
	case s.pulses == 0:
		return !s.available(), nil
	case s.pulses <= SimBits:
		bit := SimBits - s.pulses
		return s.word>>bit&1 == 1, nil
	case s.clock:
		return true, nil
	default:
		s.finish()
		return !s.available(), nil
	}
}

// Delay advances the virtual clock.
func (s *Sim) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
}

// Close releases the simulated lines.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Gain returns the trailing pulse count latched by the last completed transfer.
func (s *Sim) Gain() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pulses > SimBits && !s.clock {
		s.finish()
	}
	return s.gain
}

// Edges returns the number of rising clock edges that clocked the chip.
func (s *Sim) Edges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges
}

// Transfers returns the number of completed transfers.
func (s *Sim) Transfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pulses > SimBits && !s.clock {
		s.finish()
	}
	return s.transfers
}

// Sleeps returns how many times the chip has been powered down.
func (s *Sim) Sleeps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleeps
}

// Asleep reports whether the chip is powered down.
func (s *Sim) Asleep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleeping()
}

func (s *Sim) sleeping() bool {
	return s.clock && s.now-s.highAt >= SimPowerDown
}

// Pending returns the number of queued words not yet served.
func (s *Sim) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Sim) available() bool {
	return len(s.queue) > 0 || s.hold != nil
}

// Raw range of a 24-bit conversion.
const (
	simMinRaw = -1 << (SimBits - 1)
	simMaxRaw = 1<<(SimBits-1) - 1
)

func (s *Sim) next() uint32 {
	if len(s.queue) > 0 {
		w := s.queue[0]
		s.queue = s.queue[1:]
		return w
	}
	w := *s.hold
	if s.noise > 0 && s.rng != nil {
		v := int32(w<<8)>>8 + s.rng.Int32N(2*s.noise+1) - s.noise
		// The converter saturates rather than wrapping.
		v = max(simMinRaw, min(simMaxRaw, v))
		w = uint32(v) & 0xFFFFFF
	}
	return w
}

// finish latches the gain selected by the trailing pulses of a transfer.
func (s *Sim) finish() {
	g := s.pulses - SimBits
	if g > 3 {
		g = 3
	}
	s.gain = g
	s.transfers++
	s.pulses = 0
}

// powerDown aborts any transfer and resets the gain, as the chip does when
// the clock is held high.
func (s *Sim) powerDown() {
	s.pulses = 0
	s.gain = 1
	s.sleeps++
}
