package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/spiknet/internal/config"
	"github.com/nvandessel/spiknet/internal/logging"
	"github.com/nvandessel/spiknet/internal/network"
	"github.com/nvandessel/spiknet/internal/random"
	"github.com/nvandessel/spiknet/internal/report"
)

// Report file names, relative to the output directory.
const (
	ParamsFile     = "params.tsv"
	TrajectoryFile = "trajectory.tsv"
	SpikesFile     = "spikes.tsv"
)

// progressEvery is the tick interval of debug progress lines.
const progressEvery = 100

// Runner builds a network from configuration and runs it.
type Runner struct {
	cfg    *config.SpiknetConfig
	logger *slog.Logger
}

// NewRunner creates a runner for cfg. A nil logger discards log output.
func NewRunner(cfg *config.SpiknetConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Build grows and wires the configured network using rng. It returns the
// network, the requested type counts (nil when no proportions are set) and
// the number of synapses created.
func (r *Runner) Build(rng *random.Generator) (*network.Network, []network.TypeCount, int, error) {
	nc := r.cfg.Network
	counts, err := nc.TypeCounts()
	if err != nil {
		return nil, nil, 0, err
	}

	net := network.New()
	if counts == nil {
		net.Resize(nc.Size, nc.InhibitoryFraction, rng)
	} else {
		net.Resize(nc.Size, 0, rng)
		net.SetDefaultParams(counts, 0, rng)
	}
	links := net.RandomConnect(nc.MeanDegree, nc.MeanStrength, rng)
	return net, counts, links, nil
}

// Run builds the network and advances it for the configured number of ticks.
// When ctx is cancelled the run stops between ticks; the partial result is
// returned together with the context's error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rng := random.New(r.cfg.Simulation.Seed)
	net, counts, links, err := r.Build(rng)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Seed:  rng.Seed(),
		Size:  net.Size(),
		Types: net.TypeCounts(),
		Links: links,
	}
	r.logger.Info("network built",
		"size", result.Size,
		"links", links,
		"seed", result.Seed,
	)

	out, err := r.openReports(net, counts, result)
	if err != nil {
		return nil, err
	}
	defer out.close()

	ticks := logging.NewTickLogger(r.cfg.Output.Dir, r.cfg.Logging.Level)
	defer ticks.Close()

	sim := r.cfg.Simulation
	result.MeanPotential = make([]float64, 0, sim.Ticks)
	var runErr error
	for t := 0; t < sim.Ticks; t++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		input := rng.NormalN(sim.InputMean, sim.InputSD, net.Size())
		set, err := net.Step(input)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", t, err)
		}

		spiking := net.Spiking()
		result.Spikes += len(spiking)
		if err := out.writeTick(t, net, spiking); err != nil {
			return nil, err
		}

		mean := 0.0
		if net.Size() > 0 {
			mean = stat.Mean(net.Potentials(), nil)
		}
		result.MeanPotential = append(result.MeanPotential, mean)
		result.Ticks++

		pending := len(net.FiringNow())
		ticks.Log(logging.TickEvent{
			Tick:          t,
			FiringSet:     len(set),
			Pending:       pending,
			MeanPotential: mean,
		})
		r.logger.Log(ctx, logging.LevelTrace, "tick",
			"tick", t,
			"spiking", len(spiking),
			"pending", pending,
			"mean_potential", mean,
		)
		if (t+1)%progressEvery == 0 {
			r.logger.Debug("progress", "ticks", t+1, "spikes", result.Spikes)
		}
	}

	if err := out.flush(); err != nil {
		return nil, err
	}
	if err := out.close(); err != nil {
		return nil, err
	}

	result.Degrees = net.DegreeStats()
	result.Potential = Summarize(net.Potentials())
	r.logger.Info("simulation finished",
		"ticks", result.Ticks,
		"spikes", result.Spikes,
		"rate_hz", result.FiringRate(),
	)
	return result, runErr
}

// reports holds the open report files of a run. Nil writers are disabled.
type reports struct {
	files      []*os.File
	trajectory *report.TrajectoryWriter
	spikes     *report.SpikeWriter
}

func (r *Runner) openReports(net *network.Network, counts []network.TypeCount, result *Result) (*reports, error) {
	oc := r.cfg.Output
	out := &reports{}
	if !oc.Params && !oc.Trajectory && !oc.Spikes {
		return out, nil
	}
	if err := os.MkdirAll(oc.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	create := func(name string) (*os.File, error) {
		path := filepath.Join(oc.Dir, name)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		out.files = append(out.files, f)
		result.Files = append(result.Files, path)
		return f, nil
	}

	if oc.Params {
		f, err := create(ParamsFile)
		if err != nil {
			out.close()
			return nil, err
		}
		if err := report.WriteParams(f, net); err != nil {
			out.close()
			return nil, err
		}
	}
	if oc.Trajectory {
		f, err := create(TrajectoryFile)
		if err != nil {
			out.close()
			return nil, err
		}
		tw, err := report.NewTrajectoryWriter(f, net, counts)
		if err != nil {
			out.close()
			return nil, err
		}
		out.trajectory = tw
	}
	if oc.Spikes {
		f, err := create(SpikesFile)
		if err != nil {
			out.close()
			return nil, err
		}
		out.spikes = report.NewSpikeWriter(f)
	}
	return out, nil
}

func (o *reports) writeTick(t int, net *network.Network, spiking []int) error {
	if o.trajectory != nil {
		if err := o.trajectory.WriteTick(t, net); err != nil {
			return fmt.Errorf("writing trajectory: %w", err)
		}
	}
	if o.spikes != nil {
		if err := o.spikes.WriteTick(t, spiking); err != nil {
			return fmt.Errorf("writing spikes: %w", err)
		}
	}
	return nil
}

func (o *reports) flush() error {
	var errs []error
	if o.trajectory != nil {
		errs = append(errs, o.trajectory.Flush())
	}
	if o.spikes != nil {
		errs = append(errs, o.spikes.Flush())
	}
	return errors.Join(errs...)
}

// close closes every open file. It is safe to call more than once.
func (o *reports) close() error {
	var errs []error
	for _, f := range o.files {
		errs = append(errs, f.Close())
	}
	o.files = nil
	return errors.Join(errs...)
}
