package simulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/spiknet/internal/network"
)

// Result summarizes a run.
type Result struct {
	// Seed is the effective seed; rerunning with it reproduces the run.
	Seed uint64 `json:"seed"`

	Size  int                 `json:"size"`
	Types []network.TypeCount `json:"types"`
	Links int                 `json:"links"`

	// Ticks is the number of ticks actually run. It is lower than the
	// configured count when the run was cancelled.
	Ticks int `json:"ticks"`

	// Spikes counts threshold crossings over the whole run.
	Spikes int `json:"spikes"`

	// MeanPotential holds the population mean potential after each tick.
	MeanPotential []float64 `json:"mean_potential,omitempty"`

	Degrees   network.DegreeSummary `json:"degrees"`
	Potential Summary               `json:"potential"`

	// Files lists the reports written, in creation order.
	Files []string `json:"files,omitempty"`
}

// Summary describes a sample of values.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Summarize computes the mean, sample standard deviation and range of xs.
// The standard deviation of fewer than two values is 0.
func Summarize(xs []float64) Summary {
	var s Summary
	if len(xs) == 0 {
		return s
	}
	s.Min, s.Max = floats.Min(xs), floats.Max(xs)
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	return s
}

// FiringRate returns the mean number of spikes per neuron per second, with
// one tick being 1ms.
func (r *Result) FiringRate() float64 {
	if r.Size == 0 || r.Ticks == 0 {
		return 0
	}
	return float64(r.Spikes) / float64(r.Size) / (float64(r.Ticks) / 1000)
}
