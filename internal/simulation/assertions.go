package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/spiknet/internal/neuron"
)

// AssertPotentialBounded asserts that the population mean potential stays
// within [min, neuron.Threshold] on every tick.
func AssertPotentialBounded(t *testing.T, result *Result, min float64) {
	t.Helper()
	for i, v := range result.MeanPotential {
		if math.IsNaN(v) || v < min || v > neuron.Threshold {
			t.Errorf("AssertPotentialBounded: tick %d: mean potential %.4f not in [%.1f, %.1f]", i, v, min, neuron.Threshold)
			return
		}
	}
}

// AssertFiringRate asserts that the mean firing rate lies within [min, max] Hz.
func AssertFiringRate(t *testing.T, result *Result, min, max float64) {
	t.Helper()
	if rate := result.FiringRate(); rate < min || rate > max {
		t.Errorf("AssertFiringRate: rate %.3f Hz not in [%.3f, %.3f]", rate, min, max)
	}
}

// AssertSameRun asserts that two results describe the same run.
func AssertSameRun(t *testing.T, a, b *Result) {
	t.Helper()
	if a.Seed != b.Seed || a.Links != b.Links || a.Spikes != b.Spikes || a.Ticks != b.Ticks {
		t.Errorf("AssertSameRun: runs differ: seed %d/%d links %d/%d spikes %d/%d ticks %d/%d",
			a.Seed, b.Seed, a.Links, b.Links, a.Spikes, b.Spikes, a.Ticks, b.Ticks)
		return
	}
	for i := range a.MeanPotential {
		if a.MeanPotential[i] != b.MeanPotential[i] {
			t.Errorf("AssertSameRun: tick %d: mean potential %v != %v", i, a.MeanPotential[i], b.MeanPotential[i])
			return
		}
	}
}
