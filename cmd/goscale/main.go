package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itohio/goscale/pkg/config"
	"github.com/itohio/goscale/pkg/hx711"
	"github.com/itohio/goscale/pkg/lines"
	"github.com/itohio/goscale/pkg/log"
)

var (
	configPath = "goscale.yaml"
	debug      = false
	mock       = false
	portFlag   = ""
)

func handleCmdError(err error) {
	if errors.Is(err, hx711.ErrReadTimeout) {
		fmt.Fprintln(os.Stderr, "\nError: the converter never signalled a finished conversion")
		fmt.Fprintln(os.Stderr, "  - Check the clock and data wiring and the load cell supply")
		fmt.Fprintln(os.Stderr, "  - Or try again with '--mock' to use the simulated converter")
	} else if errors.Is(err, lines.ErrUnavailable) {
		fmt.Fprintln(os.Stderr, "\nError: GPIO lines are unavailable")
		fmt.Fprintln(os.Stderr, "  - Check lines.clock and lines.data in", configPath)
		fmt.Fprintln(os.Stderr, "  - Access to GPIO usually needs the 'gpio' group or root")
	}
}

func main() {
	cmd := NewCommand()
	err := cmd.Execute()
	log.Sync()
	if err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

// NewCommand builds the goscale command tree.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goscale",
		Short: "goscale reads an HX711 load cell converter and reports weights",
		Long: `goscale reads an HX711 load cell converter over two GPIO lines,
tares it on a fresh boot, keeps the tare across sleep and reports
rounded weights to a log, a serial port or an HTTP endpoint.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return log.Init(debug)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "Configuration file path")
	cmd.PersistentFlags().BoolVar(&debug, "debug", debug, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&mock, "mock", mock, "Use the simulated converter instead of GPIO lines")
	cmd.PersistentFlags().StringVarP(&portFlag, "port", "p", portFlag, "Serial port override (e.g., COM3 or /dev/ttyACM0)")

	cmd.AddCommand(
		NewRunCommand(),
		NewTareCommand(),
		NewRawCommand(),
		NewForgetCommand(),
		NewPortsCommand(),
		NewListenCommand(),
		NewConfigCommand(),
	)

	return cmd
}

// loadConfig loads the configuration file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if mock {
		cfg.Lines.Backend = config.BackendSim
	}
	if portFlag != "" {
		cfg.Report.Port = portFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}
	log.Debugw("Configuration loaded", "path", configPath, "lines", cfg.Lines.Backend,
		"retain", cfg.Retain.Backend, "report", cfg.Report.Backend)
	return cfg, nil
}
