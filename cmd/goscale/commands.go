package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/itohio/goscale/pkg/log"
	"github.com/itohio/goscale/pkg/node"
	"github.com/itohio/goscale/pkg/report"
	"github.com/itohio/goscale/pkg/retain"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// NewRunCommand runs the node loop.
func NewRunCommand() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the scale and report weights on a schedule",
		Long: `Boot the scale and report weights on a schedule.

On a fresh power-on the scale is tared and the offset is persisted. After a
sleep the persisted offset is reused without sampling.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Loop.Iterations = iterations
			}

			s, err := openScale(cfg)
			if err != nil {
				return err
			}
			r, err := openReporter(cfg)
			if err != nil {
				s.Close()
				return err
			}

			n, err := node.New(node.Config{
				Iterations:  cfg.Loop.Iterations,
				Interval:    cfg.Loop.Interval,
				TareSamples: cfg.Scale.TareSamples,
			}, s, openCell(cfg), r, log.Named("node"))
			if err != nil {
				r.Close()
				s.Close()
				return err
			}
			defer func() {
				if err := n.Close(); err != nil {
					log.Errorf("Failed to close node: %v", err)
				}
			}()

			ctx, cancel := signalContext()
			defer cancel()

			if err := n.Boot(ctx); err != nil {
				return err
			}
			st := n.Run(ctx)
			log.Infof("Reported %d samples (%d timeouts, %d read errors, %d report errors)",
				st.Reported, st.Timeouts, st.Failed, st.Rejected)
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Number of samples to take, 0 runs until interrupted (overrides config)")

	return cmd
}

// NewTareCommand forces a tare and persists the new offset.
func NewTareCommand() *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "tare",
		Short: "Tare the empty scale and persist the offset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("samples") {
				samples = cfg.Scale.TareSamples
			}

			s, err := openScale(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := s.Tare(ctx, samples); err != nil {
				return err
			}
			if err := openCell(cfg).Store(retain.State{Offset: s.Offset(), Calibrated: true}); err != nil {
				return fmt.Errorf("persist offset: %w", err)
			}

			fmt.Printf("Offset: %d (%d samples)\n", s.Offset(), samples)
			return nil
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "Number of samples to average (overrides config)")

	return cmd
}

// NewRawCommand prints raw conversions with their weights.
func NewRawCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Print raw conversions and weights using the persisted offset",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openScale(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := openCell(cfg).Load()
			if err != nil {
				log.Warnf("Persisted offset unreadable: %v", err)
			}
			if st.Calibrated {
				s.SetOffset(st.Offset)
			} else {
				fmt.Fprintln(os.Stderr, "Scale is not tared, weights are relative to 0")
			}

			ctx, cancel := signalContext()
			defer cancel()

			for i := 0; i < count; i++ {
				smp, err := s.Sample(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%8d  %8d  %s\n", smp.Raw, smp.Weight, report.Message(smp))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of conversions to print")

	return cmd
}

// NewForgetCommand clears the persisted offset so the next boot tares.
func NewForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear the persisted offset so the next run tares",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			f, ok := openCell(cfg).(*retain.File)
			if !ok {
				fmt.Println("Memory cell is cleared on every start")
				return nil
			}
			if err := f.Clear(); err != nil {
				return err
			}
			fmt.Printf("Cleared %s\n", f.Path())
			return nil
		},
	}
}

// NewPortsCommand lists serial ports.
func NewPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports usable by the serial reporter",
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := report.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("No serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Println(p.Name)
			}
			return nil
		},
	}
}

// NewListenCommand prints samples received from a serial reporter.
func NewListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print samples reported by another node over a serial port",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			samples, err := report.ListenPort(ctx, cfg.Report.Port, cfg.Report.Baud, log.Named("listen"))
			if err != nil {
				return err
			}
			for smp := range samples {
				fmt.Printf("%s  %8d  %s\n", smp.Timestamp.Format("15:04:05.000"), smp.Raw, report.Message(smp))
			}
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// NewConfigCommand prints or writes the effective configuration.
func NewConfigCommand() *cobra.Command {
	var write string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if write != "" {
				if err := cfg.Save(write); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", write)
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&write, "write", "w", "", "Write the effective configuration to this file")

	return cmd
}
