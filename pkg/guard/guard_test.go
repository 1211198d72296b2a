package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuards_RunFunction(t *testing.T) {
	tests := []struct {
		name  string
		guard Guard
	}{
		{name: "nop", guard: Nop},
		{name: "default", guard: Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			tt.guard.Do(func() { calls++ })
			assert.Equal(t, 1, calls)
		})
	}
}

func TestThread_ReleasedOnPanic(t *testing.T) {
	g := Thread{}

	assert.PanicsWithValue(t, "boom", func() {
		g.Do(func() { panic("boom") })
	})

	// The guard must be usable again after a panic unwound through it
	calls := 0
	g.Do(func() { calls++ })
	assert.Equal(t, 1, calls)
}
