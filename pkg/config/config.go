package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Line backends.
const (
	BackendPeriph  = "periph"
	BackendChardev = "chardev"
	BackendSim     = "sim"
)

// Retained cell backends.
const (
	RetainFile   = "file"
	RetainMemory = "memory"
)

// Report backends.
const (
	ReportLog    = "log"
	ReportSerial = "serial"
	ReportHTTP   = "http"
)

// Config represents the application configuration.
type Config struct {
	Lines  LinesConfig  `yaml:"lines"`
	Scale  ScaleConfig  `yaml:"scale"`
	Poll   PollConfig   `yaml:"poll"`
	Retain RetainConfig `yaml:"retain"`
	Report ReportConfig `yaml:"report"`
	Loop   LoopConfig   `yaml:"loop"`
	Sim    SimConfig    `yaml:"sim"`
}

// LinesConfig selects the clock and data lines.
type LinesConfig struct {
	Backend string `yaml:"backend"` // periph, chardev or sim
	Chip    string `yaml:"chip"`    // GPIO chip for the chardev backend
	Clock   string `yaml:"clock"`   // Pin name (periph) or line offset (chardev)
	Data    string `yaml:"data"`
}

// ScaleConfig contains converter and calibration parameters.
type ScaleConfig struct {
	Factor      float32       `yaml:"factor"`       // Physical units per raw count
	Gain        int           `yaml:"gain"`         // 128, 64 or 32
	TareSamples int           `yaml:"tare_samples"` // Samples averaged by a boot tare
	High        time.Duration `yaml:"high"`         // Minimum clock high time
	Low         time.Duration `yaml:"low"`          // Minimum clock low time
}

// PollConfig bounds readiness polling.
type PollConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// RetainConfig selects where the tare offset survives sleep.
type RetainConfig struct {
	Backend string `yaml:"backend"` // file or memory
	Path    string `yaml:"path"`
}

// ReportConfig selects the upstream reporter.
type ReportConfig struct {
	Backend string `yaml:"backend"` // log, serial or http
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	URL     string `yaml:"url"`
	Key     string `yaml:"key"`
}

// LoopConfig contains the node loop schedule.
type LoopConfig struct {
	Iterations int           `yaml:"iterations"` // 0 runs until interrupted
	Interval   time.Duration `yaml:"interval"`
}

// SimConfig contains simulated converter parameters.
type SimConfig struct {
	Raw   int32 `yaml:"raw"`   // Raw counts served by every conversion
	Noise int32 `yaml:"noise"` // Uniform noise amplitude in counts
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Lines: LinesConfig{
			Backend: BackendPeriph,
			Chip:    "gpiochip0",
			Clock:   "GPIO3",
			Data:    "GPIO2",
		},
		Scale: ScaleConfig{
			Factor:      0.0027,
			Gain:        128,
			TareSamples: 32,
			High:        time.Microsecond,
			Low:         time.Microsecond,
		},
		Poll: PollConfig{
			Attempts: 100,
			Interval: 10 * time.Millisecond,
		},
		Retain: RetainConfig{
			Backend: RetainFile,
			Path:    "/run/goscale/offset",
		},
		Report: ReportConfig{
			Backend: ReportLog,
			Port:    "/dev/ttyUSB0",
			Baud:    115200,
		},
		Loop: LoopConfig{
			Iterations: 4,
			Interval:   5 * time.Second,
		},
		Sim: SimConfig{
			Raw:   4000,
			Noise: 0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Lines.Backend {
	case BackendPeriph, BackendChardev, BackendSim:
	default:
		return fmt.Errorf("lines.backend: unknown backend %q", c.Lines.Backend)
	}
	if c.Scale.Factor <= 0 {
		return fmt.Errorf("scale.factor: must be positive, got %v", c.Scale.Factor)
	}
	switch c.Scale.Gain {
	case 128, 64, 32:
	default:
		return fmt.Errorf("scale.gain: must be 128, 64 or 32, got %d", c.Scale.Gain)
	}
	if c.Scale.TareSamples < 1 {
		return fmt.Errorf("scale.tare_samples: must be at least 1, got %d", c.Scale.TareSamples)
	}
	if c.Poll.Attempts < 1 {
		return fmt.Errorf("poll.attempts: must be at least 1, got %d", c.Poll.Attempts)
	}
	switch c.Retain.Backend {
	case RetainFile, RetainMemory:
	default:
		return fmt.Errorf("retain.backend: unknown backend %q", c.Retain.Backend)
	}
	switch c.Report.Backend {
	case ReportLog:
	case ReportSerial:
		if c.Report.Port == "" {
			return fmt.Errorf("report.port: required for serial reports")
		}
	case ReportHTTP:
		if c.Report.URL == "" {
			return fmt.Errorf("report.url: required for http reports")
		}
	default:
		return fmt.Errorf("report.backend: unknown backend %q", c.Report.Backend)
	}
	if c.Loop.Iterations < 0 {
		return fmt.Errorf("loop.iterations: must not be negative, got %d", c.Loop.Iterations)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Lines.Backend == "" {
		c.Lines.Backend = def.Lines.Backend
	}
	if c.Lines.Chip == "" {
		c.Lines.Chip = def.Lines.Chip
	}
	if c.Lines.Clock == "" {
		c.Lines.Clock = def.Lines.Clock
	}
	if c.Lines.Data == "" {
		c.Lines.Data = def.Lines.Data
	}

	if c.Scale.Factor == 0 {
		c.Scale.Factor = def.Scale.Factor
	}
	if c.Scale.Gain == 0 {
		c.Scale.Gain = def.Scale.Gain
	}
	if c.Scale.TareSamples == 0 {
		c.Scale.TareSamples = def.Scale.TareSamples
	}
	if c.Scale.High == 0 {
		c.Scale.High = def.Scale.High
	}
	if c.Scale.Low == 0 {
		c.Scale.Low = def.Scale.Low
	}

	if c.Poll.Attempts == 0 {
		c.Poll.Attempts = def.Poll.Attempts
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = def.Poll.Interval
	}

	if c.Retain.Backend == "" {
		c.Retain.Backend = def.Retain.Backend
	}
	if c.Retain.Path == "" {
		c.Retain.Path = def.Retain.Path
	}

	if c.Report.Backend == "" {
		c.Report.Backend = def.Report.Backend
	}
	if c.Report.Baud == 0 {
		c.Report.Baud = def.Report.Baud
	}

	if c.Loop.Interval == 0 {
		c.Loop.Interval = def.Loop.Interval
	}
}
