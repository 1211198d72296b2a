//go:build tinygo

package guard

import "runtime/interrupt"

// Interrupts disables interrupts while fn runs.
type Interrupts struct{}

// Do runs fn with interrupts disabled and restores the previous state afterwards.
func (Interrupts) Do(fn func()) {
	state := interrupt.Disable()
	defer interrupt.Restore(state)
	fn()
}

// Default returns the strongest guard available on this platform.
func Default() Guard {
	return Interrupts{}
}
