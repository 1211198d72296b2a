// Package guard provides the execution region used around timing critical
// bit transfers. Everything run inside Do must be short: on microcontrollers
// interrupts are disabled for its whole duration.
package guard

// Guard runs a function with preemption suppressed.
type Guard interface {
	// Do runs fn inside the guarded region. The region is released when fn
	// returns or panics.
	Do(fn func())
}

// Nop runs functions without any protection. Used with simulated lines.
var Nop Guard = nop{}

type nop struct{}

func (nop) Do(fn func()) { fn() }
