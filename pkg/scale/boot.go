package scale

import (
	"context"
	"errors"
	"fmt"

	"github.com/itohio/goscale/pkg/retain"
)

// DefaultTareSamples is the number of samples averaged by a boot tare.
const DefaultTareSamples = 32

// ErrPersist is returned by Resume when the Scale was tared but the new
// offset could not be stored. The Scale is usable; only the next wake will
// tare again.
var ErrPersist = errors.New("persist offset")

// Resume restores the offset persisted in cell, or tares with n samples and
// persists the result when the cell holds no calibration (fresh power-on).
// It reports whether the persisted offset was reused.
//
// A cell that cannot be loaded is treated as uncalibrated. A failure to store
// the new offset is returned wrapping ErrPersist after the Scale has been
// tared, so the caller may keep measuring.
func Resume(ctx context.Context, s *Scale, cell retain.Cell, n int) (bool, error) {
	st, err := cell.Load()
	if err != nil {
		s.log.Warnw("Persisted offset unreadable, taring", "error", err)
		st = retain.State{}
	}

	if st.Calibrated {
		s.SetOffset(st.Offset)
		s.log.Infow("Resumed persisted offset", "offset", st.Offset)
		return true, nil
	}

	if err := s.Tare(ctx, n); err != nil {
		return false, err
	}
	s.log.Infow("Tared on fresh boot", "samples", n, "offset", s.offset)

	if err := cell.Store(retain.State{Offset: s.offset, Calibrated: true}); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return false, nil
}
