package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goscale/pkg/config"
	"github.com/itohio/goscale/pkg/lines"
	"github.com/itohio/goscale/pkg/report"
	"github.com/itohio/goscale/pkg/retain"
)

func TestLineOffset(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{name: "17", want: 17},
		{name: "GPIO17", want: 17},
		{name: "gpio4", want: 4},
		{name: "PA7", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lineOffset(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, lines.ErrUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenScale_Sim(t *testing.T) {
	cfg := config.Default()
	cfg.Lines.Backend = config.BackendSim
	cfg.Sim.Raw = 4000 + 370370

	s, err := openScale(cfg)
	require.NoError(t, err)
	defer s.Close()

	s.SetOffset(4000)
	got, err := s.ReadRounded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1000), got)
}

func TestOpenCell(t *testing.T) {
	cfg := config.Default()
	cfg.Retain.Path = filepath.Join(t.TempDir(), "offset")

	f, ok := openCell(cfg).(*retain.File)
	require.True(t, ok)
	assert.Equal(t, cfg.Retain.Path, f.Path())

	cfg.Retain.Backend = config.RetainMemory
	_, ok = openCell(cfg).(*retain.Memory)
	assert.True(t, ok)
}

func TestOpenReporter_Defaults(t *testing.T) {
	cfg := config.Default()

	r, err := openReporter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &report.Log{}, r)

	cfg.Report.Backend = config.ReportHTTP
	cfg.Report.URL = "http://127.0.0.1:1/readings"
	r, err = openReporter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &report.HTTP{}, r)
}

func TestLoadConfig_MockOverride(t *testing.T) {
	defer func(p string, m bool) { configPath, mock = p, m }(configPath, mock)
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	mock = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.BackendSim, cfg.Lines.Backend)
}
