// Package retain holds the tare offset across low-power sleep.
//
// A Cell survives sleep/wake cycles of the node but not a full power-on
// reset, after which it loads as the zero State. The zero State means "not
// calibrated"; Calibrated distinguishes a genuine offset of 0 from an empty
// cell.
package retain

import "sync"

// State is the persisted calibration.
type State struct {
	Offset     int32 `msgpack:"offset"`
	Calibrated bool  `msgpack:"calibrated"`
}

// Cell is a retained memory cell.
type Cell interface {
	Load() (State, error)
	Store(State) error
}

// Ensure Memory implements Cell.
var _ Cell = (*Memory)(nil)

// Ensure File implements Cell.
var _ Cell = (*File)(nil)

// Memory is a cell that lives as long as the process. It is used by the
// firmware, where the process lifetime is the retained RAM lifetime, and by
// tests.
type Memory struct {
	mu sync.Mutex
	st State
}

// Load returns the stored state.
func (m *Memory) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

// Store replaces the stored state.
func (m *Memory) Store(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	return nil
}

// PowerCycle clears the cell as a full power-on reset would.
func (m *Memory) PowerCycle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = State{}
}
