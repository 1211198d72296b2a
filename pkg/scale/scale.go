// Package scale turns raw load-cell counts into calibrated weights.
//
// A Scale owns an hx711.Device and its calibration: the zero-load offset in
// raw counts and the factor that maps counts above the offset to physical
// units. The offset is found by Tare or restored with SetOffset (see Resume).
package scale

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/goscale/pkg/guard"
	"github.com/itohio/goscale/pkg/hx711"
	"github.com/itohio/goscale/pkg/lines"
	"github.com/itohio/goscale/pkg/sample"
)

// ErrConfiguration is returned for invalid construction or tare arguments.
var ErrConfiguration = errors.New("scale: configuration")

// Logger is the subset of *zap.SugaredLogger used by Scale.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}

// Ensure Scale is a sample source.
var _ sample.Source = (*Scale)(nil)

// Scale is a calibrated load cell. It is not safe for concurrent use.
type Scale struct {
	lines  lines.Lines
	dev    *hx711.Device
	poll   hx711.Poll
	log    Logger
	now    func() time.Time
	offset int32
	factor float32
}

type options struct {
	hx   hx711.Config
	poll hx711.Poll
	log  Logger
}

// Option configures a Scale.
type Option func(*options)

// WithGain sets the converter channel and gain.
func WithGain(g hx711.Gain) Option {
	return func(o *options) { o.hx.Gain = g }
}

// WithTiming sets the clock pulse timing.
func WithTiming(t hx711.Timing) Option {
	return func(o *options) { o.hx.Timing = t }
}

// WithGuard sets the guard used around transfers.
func WithGuard(g guard.Guard) Option {
	return func(o *options) { o.hx.Guard = g }
}

// WithPoll sets the readiness poll budget used by every read.
func WithPoll(p hx711.Poll) Option {
	return func(o *options) { o.poll = p }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates a Scale reading from l with the given scale factor, which must
// be positive and finite. The Scale takes ownership of l.
func New(l lines.Lines, factor float32, opts ...Option) (*Scale, error) {
	o := options{
		poll: hx711.DefaultPoll,
		log:  nopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if l == nil {
		return nil, fmt.Errorf("%w: no lines", ErrConfiguration)
	}
	if !(factor > 0) || math32.IsInf(factor, 1) {
		return nil, fmt.Errorf("%w: scale factor must be positive, got %v", ErrConfiguration, factor)
	}

	dev, err := hx711.New(l, o.hx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &Scale{
		lines:  l,
		dev:    dev,
		poll:   o.poll,
		log:    o.log,
		now:    time.Now,
		factor: factor,
	}, nil
}

// Close releases the lines.
func (s *Scale) Close() error {
	return s.lines.Close()
}

// Device returns the underlying converter.
func (s *Scale) Device() *hx711.Device {
	return s.dev
}

// IsReady reports whether a conversion is ready. It never blocks.
func (s *Scale) IsReady() bool {
	return s.dev.IsReady()
}

// Offset returns the zero-load offset in raw counts.
func (s *Scale) Offset() int32 {
	return s.offset
}

// SetOffset restores an offset without taring.
func (s *Scale) SetOffset(v int32) {
	s.offset = v
}

// Factor returns the scale factor.
func (s *Scale) Factor() float32 {
	return s.factor
}

// SetFactor replaces the scale factor. It must be positive and finite.
func (s *Scale) SetFactor(f float32) error {
	if !(f > 0) || math32.IsInf(f, 1) {
		return fmt.Errorf("%w: scale factor must be positive, got %v", ErrConfiguration, f)
	}
	s.factor = f
	return nil
}

// ReadRaw waits for the next conversion and returns it.
func (s *Scale) ReadRaw(ctx context.Context) (hx711.Raw, error) {
	if err := s.dev.WaitReady(ctx, s.poll); err != nil {
		return 0, err
	}
	return s.dev.Read()
}

// Tare averages n consecutive samples into the offset. Nothing may be on
// the load cell while it runs. On error the offset is left unchanged.
func (s *Scale) Tare(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: tare needs at least one sample, got %d", ErrConfiguration, n)
	}

	raws := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		raw, err := s.ReadRaw(ctx)
		if err != nil {
			return fmt.Errorf("tare sample %d/%d: %w", i+1, n, err)
		}
		raws = append(raws, int32(raw))
	}

	s.offset = sample.Mean(raws)
	s.log.Debugw("Tared", "samples", n, "offset", s.offset)
	return nil
}

// Read returns the weight of the next conversion, unrounded.
func (s *Scale) Read(ctx context.Context) (float32, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return 0, err
	}
	return s.convert(raw), nil
}

// ReadRounded returns the weight of the next conversion rounded to the
// nearest unit, ties away from zero. A weight outside the int32 range is an
// error wrapping ErrConfiguration: the factor is too large for the reading.
func (s *Scale) ReadRounded(ctx context.Context) (int32, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return 0, err
	}
	return s.round(raw)
}

// Sample reads one conversion as a timestamped Sample.
func (s *Scale) Sample(ctx context.Context) (sample.Sample, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return sample.Sample{}, err
	}
	w, err := s.round(raw)
	if err != nil {
		return sample.Sample{}, err
	}
	return sample.Sample{
		Timestamp: s.now(),
		Raw:       int32(raw),
		Weight:    w,
	}, nil
}

// convert maps raw counts to physical units: (raw - offset) * factor.
func (s *Scale) convert(raw hx711.Raw) float32 {
	return float32(int64(raw)-int64(s.offset)) * s.factor
}

// Bounds of an int32 weight as float32. Both are exact powers of two.
const (
	minWeight = float32(math.MinInt32)
	maxWeight = -minWeight
)

func (s *Scale) round(raw hx711.Raw) (int32, error) {
	v := math32.Round(s.convert(raw))
	if v < minWeight || v >= maxWeight {
		return 0, fmt.Errorf("%w: weight %g out of range for raw %d with factor %g", ErrConfiguration, v, raw, s.factor)
	}
	return int32(v), nil
}
