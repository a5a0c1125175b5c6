package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/spiknet/internal/config"
	"github.com/nvandessel/spiknet/internal/logging"
	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spiknet",
		Short: "Spiking neural network simulator",
		Long: `spiknet simulates randomly wired networks of Izhikevich neurons.

It grows a population of typed neurons, wires them with Poisson
out-degrees, drives them with noisy external input and writes
parameter tables, sample trajectories and spike rasters.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.spiknet/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newConfigCmd(),
		newGraphCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config and applies the
// --log-level override.
func loadConfig(cmd *cobra.Command) (*config.SpiknetConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger returns the operational logger, writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.SpiknetConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}
