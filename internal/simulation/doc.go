// Package simulation drives a spiking network from configuration to reports.
//
// A Runner grows the population described by a config.SpiknetConfig, wires it
// with Poisson out-degrees, then advances it tick by tick under normally
// distributed external input. Every random draw comes from one seeded
// generator, so a run is fully determined by its configuration and seed.
//
// Reports (params.tsv, trajectory.tsv, spikes.tsv) and the JSONL tick trace
// are written to the configured output directory as the run progresses.
//
// Usage:
//
//	cfg := config.Default()
//	cfg.Network.Size = 200
//	cfg.Simulation.Ticks = 500
//	result, err := simulation.NewRunner(cfg, logger).Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Spikes, result.Potential.Mean)
package simulation
