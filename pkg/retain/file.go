//go:build !tinygo

package retain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultPath is on tmpfs: it survives process restarts between sleep
// cycles and is cleared when the host reboots.
const DefaultPath = "/run/goscale/offset"

// File is a cell backed by a small msgpack file.
type File struct {
	path string
}

// NewFile creates a file cell at path, or DefaultPath if empty.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the state. A missing file is the zero State.
func (f *File) Load() (State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read retained offset: %w", err)
	}

	var st State
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode retained offset %s: %w", f.path, err)
	}
	return st, nil
}

// Store writes the state atomically.
func (f *File) Store(st State) error {
	data, err := msgpack.Marshal(&st)
	if err != nil {
		return fmt.Errorf("failed to encode retained offset: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".offset-*")
	if err != nil {
		return fmt.Errorf("failed to write retained offset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write retained offset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write retained offset: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to write retained offset: %w", err)
	}
	return nil
}

// Clear removes the file, forcing a tare on the next boot.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear retained offset: %w", err)
	}
	return nil
}
