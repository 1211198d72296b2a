//go:build !tinygo

package guard

import "runtime"

// Thread pins the calling goroutine to its OS thread while fn runs, so the
// transfer is not migrated between threads mid-sequence. A hosted OS cannot
// disable interrupts from user space; this is the closest equivalent.
type Thread struct{}

// Do runs fn locked to the current OS thread.
func (Thread) Do(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn()
}

// Default returns the strongest guard available on this platform.
func Default() Guard {
	return Thread{}
}
