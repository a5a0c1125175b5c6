package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/nvandessel/spiknet/internal/config"
	"github.com/nvandessel/spiknet/internal/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a network and simulate it",
		Long: `Grow and wire a network from configuration, then advance it one
millisecond per tick under normally distributed external input.

Flags override the config file and SPIKNET_* environment variables.
Reports are written to the output directory:
  params.tsv      per-neuron parameters, out-degree and valence (--params)
  trajectory.tsv  v, u and I of one neuron per type (--trajectory)
  spikes.tsv      tick and index of every threshold crossing (--spikes)
  ticks.jsonl     per-tick trace (--log-level debug or trace)

Examples:
  spiknet run --size 1000 --ticks 1000 --seed 1
  spiknet run --types "FS:0.2,IB:0.1" --spikes --out ./run1
  spiknet run --degree 20 --strength 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			notifySignals(sigCh)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			result, err := simulation.NewRunner(cfg, newLogger(cmd, cfg)).Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			interrupted := err != nil

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"result":      result,
					"rate_hz":     result.FiringRate(),
					"interrupted": interrupted,
				})
			}
			printResult(cmd, result, interrupted)
			return nil
		},
	}

	cmd.Flags().Int("ticks", 0, "Number of 1ms ticks to simulate")
	cmd.Flags().Int("size", 0, "Number of neurons")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 = from system entropy)")
	cmd.Flags().Float64("inhibitory", 0, "Fraction of FS neurons when --types is not set")
	cmd.Flags().Float64("degree", 0, "Mean out-degree")
	cmd.Flags().Float64("strength", 0, "Mean synapse strength")
	cmd.Flags().String("types", "", "Type proportions, e.g. \"FS:0.2,IB:0.1\"")
	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().Bool("params", false, "Write params.tsv")
	cmd.Flags().Bool("trajectory", true, "Write trajectory.tsv")
	cmd.Flags().Bool("spikes", false, "Write spikes.tsv")

	return cmd
}

// applyRunFlags copies explicitly set run flags onto cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.SpiknetConfig) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("ticks", func() (e error) { cfg.Simulation.Ticks, e = flags.GetInt("ticks"); return })
	set("size", func() (e error) { cfg.Network.Size, e = flags.GetInt("size"); return })
	set("seed", func() (e error) { cfg.Simulation.Seed, e = flags.GetUint64("seed"); return })
	set("inhibitory", func() (e error) { cfg.Network.InhibitoryFraction, e = flags.GetFloat64("inhibitory"); return })
	set("degree", func() (e error) { cfg.Network.MeanDegree, e = flags.GetFloat64("degree"); return })
	set("strength", func() (e error) { cfg.Network.MeanStrength, e = flags.GetFloat64("strength"); return })
	set("types", func() (e error) { cfg.Network.Types, e = flags.GetString("types"); return })
	set("out", func() (e error) { cfg.Output.Dir, e = flags.GetString("out"); return })
	set("params", func() (e error) { cfg.Output.Params, e = flags.GetBool("params"); return })
	set("trajectory", func() (e error) { cfg.Output.Trajectory, e = flags.GetBool("trajectory"); return })
	set("spikes", func() (e error) { cfg.Output.Spikes, e = flags.GetBool("spikes"); return })

	return err
}

func printResult(cmd *cobra.Command, r *simulation.Result, interrupted bool) {
	out := cmd.OutOrStdout()
	if interrupted {
		fmt.Fprintf(out, "Interrupted after %d ticks.\n\n", r.Ticks)
	}
	fmt.Fprintf(out, "Seed:      %d\n", r.Seed)
	fmt.Fprintf(out, "Neurons:   %d\n", r.Size)
	for _, tc := range r.Types {
		fmt.Fprintf(out, "  %-4s %d\n", tc.Name, tc.Count)
	}
	fmt.Fprintf(out, "Synapses:  %d (out-degree %.2f ± %.2f, valence %.2f ± %.2f)\n",
		r.Links, r.Degrees.MeanDegree, r.Degrees.StdDegree, r.Degrees.MeanValence, r.Degrees.StdValence)
	if r.Degrees.IsolatedUnits > 0 {
		fmt.Fprintf(out, "Isolated:  %d\n", r.Degrees.IsolatedUnits)
	}
	fmt.Fprintf(out, "Ticks:     %d\n", r.Ticks)
	fmt.Fprintf(out, "Spikes:    %d (%.2f Hz per neuron)\n", r.Spikes, r.FiringRate())
	fmt.Fprintf(out, "Potential: mean %.3f, sd %.3f, range [%.3f, %.3f]\n",
		r.Potential.Mean, r.Potential.Std, r.Potential.Min, r.Potential.Max)
	for _, f := range r.Files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}
}
