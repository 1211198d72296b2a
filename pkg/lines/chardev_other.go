//go:build !linux || tinygo

package lines

import "fmt"

// NewChardev is only available on Linux.
func NewChardev(chip string, clock, data int) (Lines, error) {
	return nil, fmt.Errorf("%w: GPIO character device requires linux", ErrUnavailable)
}
