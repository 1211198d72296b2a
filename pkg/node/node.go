// Package node runs the acquisition loop of a weighing node: resume or tare
// on boot, then sample on a schedule and hand every reading to a reporter.
package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/itohio/goscale/pkg/hx711"
	"github.com/itohio/goscale/pkg/report"
	"github.com/itohio/goscale/pkg/retain"
	"github.com/itohio/goscale/pkg/sample"
	"github.com/itohio/goscale/pkg/scale"
)

// Config contains the loop schedule.
type Config struct {
	Iterations  int           // Samples to take, 0 runs until the context is done
	Interval    time.Duration // Pause between samples
	TareSamples int           // Samples averaged by a fresh-boot tare
}

// Stats counts what a Run did.
type Stats struct {
	Reported int
	Timeouts int
	Failed   int // Read errors other than timeouts
	Rejected int // Samples the reporter failed to deliver
}

// Node owns a Scale, its retained offset and a Reporter.
type Node struct {
	cfg      Config
	scale    *scale.Scale
	cell     retain.Cell
	reporter report.Reporter
	log      *zap.SugaredLogger
}

// New creates a Node. A nil logger discards log output.
func New(cfg Config, s *scale.Scale, cell retain.Cell, r report.Reporter, log *zap.SugaredLogger) (*Node, error) {
	if s == nil || cell == nil || r == nil {
		return nil, fmt.Errorf("%w: node needs a scale, a retained cell and a reporter", scale.ErrConfiguration)
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration count %d", scale.ErrConfiguration, cfg.Iterations)
	}
	if cfg.TareSamples == 0 {
		cfg.TareSamples = scale.DefaultTareSamples
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Node{
		cfg:      cfg,
		scale:    s,
		cell:     cell,
		reporter: r,
		log:      log,
	}, nil
}

// Boot restores the retained offset or tares on a fresh power-on. A tare
// whose offset cannot be persisted is logged and the node keeps running on
// the tared offset; the next boot tares again.
func (n *Node) Boot(ctx context.Context) error {
	resumed, err := scale.Resume(ctx, n.scale, n.cell, n.cfg.TareSamples)
	switch {
	case errors.Is(err, scale.ErrPersist):
		n.log.Warnw("Tared offset not persisted, next boot will tare again", "offset", n.scale.Offset(), "error", err)
	case err != nil:
		return fmt.Errorf("boot: %w", err)
	}
	n.log.Infow("Node booted", "resumed", resumed, "offset", n.scale.Offset(), "factor", n.scale.Factor())
	return nil
}

// Run samples the scale until the configured number of iterations was
// attempted or ctx is done. Failed reads and failed reports are logged and
// skipped, so a single timeout never stops the loop.
func (n *Node) Run(ctx context.Context) Stats {
	var st Stats

	for r := range sample.Stream(ctx, n.scale, n.cfg.Interval, n.cfg.Iterations, 0) {
		switch {
		case r.Err != nil && ctx.Err() != nil:
			return st
		case errors.Is(r.Err, hx711.ErrReadTimeout):
			st.Timeouts++
			n.log.Warnw("Converter not ready, skipping sample", "error", r.Err)
			continue
		case r.Err != nil:
			st.Failed++
			n.log.Errorw("Failed to read sample", "error", r.Err)
			continue
		}

		if err := n.reporter.Report(ctx, r.Sample); err != nil {
			st.Rejected++
			n.log.Errorw("Failed to report sample", "weight", r.Weight, "error", err)
			continue
		}
		st.Reported++
	}

	n.log.Debugw("Run finished", "reported", st.Reported, "timeouts", st.Timeouts, "failed", st.Failed, "rejected", st.Rejected)
	return st
}

// Close releases the reporter and the scale.
func (n *Node) Close() error {
	return errors.Join(n.reporter.Close(), n.scale.Close())
}
