package retain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := &Memory{}

	st, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
	assert.False(t, st.Calibrated)

	require.NoError(t, m.Store(State{Offset: -4000, Calibrated: true}))
	st, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, State{Offset: -4000, Calibrated: true}, st)

	m.PowerCycle()
	st, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestFile_MissingIsUncalibrated(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "offset"))

	st, err := f.Load()
	require.NoError(t, err)
	assert.False(t, st.Calibrated)
	assert.Equal(t, int32(0), st.Offset)
}

func TestFile_StoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "goscale", "offset")
	f := NewFile(path)

	tests := []State{
		{Offset: 4000, Calibrated: true},
		{Offset: 0, Calibrated: true},
		{Offset: -8388608, Calibrated: true},
	}

	for _, want := range tests {
		require.NoError(t, f.Store(want))
		got, err := f.Load()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFile_Clear(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "offset"))
	require.NoError(t, f.Store(State{Offset: 12, Calibrated: true}))

	require.NoError(t, f.Clear())
	st, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, State{}, st)

	// Clearing twice is fine
	assert.NoError(t, f.Clear())
}

func TestFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offset")
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0644))

	_, err := NewFile(path).Load()
	assert.Error(t, err)
}

func TestNewFile_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewFile("").Path())
}
