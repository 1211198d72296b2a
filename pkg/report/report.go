// Package report delivers weighed samples upstream. Reporters make a single
// attempt per sample and return its error; retrying is up to the caller.
package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/itohio/goscale/pkg/sample"
)

// Reporter sends a sample upstream.
type Reporter interface {
	Report(ctx context.Context, s sample.Sample) error
	Close() error
}

// Ensure Log implements Reporter.
var _ Reporter = (*Log)(nil)

// Ensure Serial implements Reporter.
var _ Reporter = (*Serial)(nil)

// Ensure HTTP implements Reporter.
var _ Reporter = (*HTTP)(nil)

// Message formats the human readable report of s.
func Message(s sample.Sample) string {
	return fmt.Sprintf("Weight: %d g", s.Weight)
}

// Log reports samples to a logger.
type Log struct {
	log *zap.SugaredLogger
}

// NewLog creates a Log reporter.
func NewLog(l *zap.SugaredLogger) *Log {
	return &Log{log: l}
}

// Report logs the sample.
func (l *Log) Report(_ context.Context, s sample.Sample) error {
	l.log.Infow(Message(s), "raw", s.Raw, "weight", s.Weight, "at", s.Timestamp)
	return nil
}

// Close does nothing.
func (l *Log) Close() error {
	return nil
}
