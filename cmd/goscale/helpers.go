package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/goscale/pkg/config"
	"github.com/itohio/goscale/pkg/guard"
	"github.com/itohio/goscale/pkg/hx711"
	"github.com/itohio/goscale/pkg/lines"
	"github.com/itohio/goscale/pkg/log"
	"github.com/itohio/goscale/pkg/report"
	"github.com/itohio/goscale/pkg/retain"
	"github.com/itohio/goscale/pkg/scale"
)

// openLines opens the clock and data lines selected by cfg.
func openLines(cfg *config.Config) (lines.Lines, error) {
	switch cfg.Lines.Backend {
	case config.BackendSim:
		sim := lines.NewSim()
		sim.Hold(hx711.Encode(hx711.Raw(cfg.Sim.Raw)))
		if cfg.Sim.Noise > 0 {
			sim.Noise(cfg.Sim.Noise, uint64(time.Now().UnixNano()))
		}
		log.Named("lines").Infow("Using simulated converter", "raw", cfg.Sim.Raw, "noise", cfg.Sim.Noise)
		return sim, nil

	case config.BackendPeriph:
		p, err := lines.NewPeriph(cfg.Lines.Clock, cfg.Lines.Data)
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.BackendChardev:
		clock, err := lineOffset(cfg.Lines.Clock)
		if err != nil {
			return nil, err
		}
		data, err := lineOffset(cfg.Lines.Data)
		if err != nil {
			return nil, err
		}
		c, err := lines.NewChardev(cfg.Lines.Chip, clock, data)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	return nil, fmt.Errorf("%w: unknown backend %q", lines.ErrUnavailable, cfg.Lines.Backend)
}

// lineOffset parses a chardev line offset, accepting "17" and "GPIO17".
func lineOffset(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(name), "GPIO"))
	if err != nil {
		return 0, fmt.Errorf("%w: bad line offset %q", lines.ErrUnavailable, name)
	}
	return n, nil
}

// openScale opens the lines and wraps them in a Scale configured by cfg.
func openScale(cfg *config.Config) (*scale.Scale, error) {
	gain, err := hx711.ParseGain(cfg.Scale.Gain)
	if err != nil {
		return nil, err
	}

	l, err := openLines(cfg)
	if err != nil {
		return nil, err
	}

	s, err := scale.New(l, cfg.Scale.Factor,
		scale.WithGain(gain),
		scale.WithTiming(hx711.Timing{High: cfg.Scale.High, Low: cfg.Scale.Low}),
		scale.WithGuard(guard.Default()),
		scale.WithPoll(hx711.Poll{Attempts: cfg.Poll.Attempts, Interval: cfg.Poll.Interval}),
		scale.WithLogger(log.Named("scale")),
	)
	if err != nil {
		l.Close()
		return nil, err
	}
	return s, nil
}

// openCell returns the retained offset cell selected by cfg.
func openCell(cfg *config.Config) retain.Cell {
	if cfg.Retain.Backend == config.RetainMemory {
		return &retain.Memory{}
	}
	return retain.NewFile(cfg.Retain.Path)
}

// openReporter returns the reporter selected by cfg.
func openReporter(cfg *config.Config) (report.Reporter, error) {
	switch cfg.Report.Backend {
	case config.ReportSerial:
		s := report.NewSerial(cfg.Report.Port, cfg.Report.Baud)
		if err := s.Open(); err != nil {
			return nil, err
		}
		return s, nil
	case config.ReportHTTP:
		return report.NewHTTP(cfg.Report.URL, cfg.Report.Key, &http.Client{Timeout: 10 * time.Second}), nil
	}
	return report.NewLog(log.Named("report")), nil
}
