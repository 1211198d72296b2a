package hx711

import "fmt"

// Raw is a sign-extended 24-bit two's-complement sample.
type Raw int32

const (
	// MinRaw is the most negative sample, 0x800000.
	MinRaw Raw = -1 << (Bits - 1)
	// MaxRaw is the most positive sample, 0x7FFFFF.
	MaxRaw Raw = 1<<(Bits-1) - 1
)

// Decode sign-extends a 24-bit word. Bits above 23 are ignored.
func Decode(word uint32) Raw {
	return Raw(int32(word<<8) >> 8)
}

// Encode returns the 24-bit word for r. Out of range values wrap.
func Encode(r Raw) uint32 {
	return uint32(r) & 0xFFFFFF
}

// Gain selects the input channel and gain of the next conversion. The value
// is the number of trailing clock pulses that selects it.
type Gain int

const (
	GainA128 Gain = 1 // Channel A, gain 128
	GainB32  Gain = 2 // Channel B, gain 32
	GainA64  Gain = 3 // Channel A, gain 64
)

// Pulses returns the number of trailing clock pulses.
func (g Gain) Pulses() int {
	return int(g)
}

// Valid reports whether g is one of the defined gains.
func (g Gain) Valid() bool {
	return g >= GainA128 && g <= GainA64
}

func (g Gain) String() string {
	switch g {
	case GainA128:
		return "A/128"
	case GainB32:
		return "B/32"
	case GainA64:
		return "A/64"
	default:
		return fmt.Sprintf("Gain(%d)", int(g))
	}
}

// ParseGain maps an amplifier gain (128, 64 or 32) to its Gain.
func ParseGain(v int) (Gain, error) {
	switch v {
	case 128:
		return GainA128, nil
	case 64:
		return GainA64, nil
	case 32:
		return GainB32, nil
	default:
		return 0, fmt.Errorf("hx711: unsupported gain %d (choose 128, 64 or 32)", v)
	}
}

// State is the protocol state of a Device.
type State int

const (
	NotReady State = iota
	Ready
	Transferring
	Done
)

func (s State) String() string {
	switch s {
	case NotReady:
		return "not ready"
	case Ready:
		return "ready"
	case Transferring:
		return "transferring"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
