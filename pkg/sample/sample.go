package sample

import (
	"context"
	"time"
)

// Sample is one weighed reading.
type Sample struct {
	Timestamp time.Time
	Raw       int32 // Sign-extended converter counts
	Weight    int32 // Rounded weight in physical units (e.g. grams)
}

// Source produces samples, blocking until one is available or failing.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// Reading is a Sample or the error that prevented it.
type Reading struct {
	Sample
	Err error
}

// Mean returns the arithmetic mean of values rounded to the nearest integer,
// ties away from zero. Mean of an empty slice is 0.
func Mean(values []int32) int32 {
	n := int64(len(values))
	if n == 0 {
		return 0
	}

	var sum int64
	for _, v := range values {
		sum += int64(v)
	}

	if sum < 0 {
		return int32(-((-sum + n/2) / n))
	}
	return int32((sum + n/2) / n)
}
