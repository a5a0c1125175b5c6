// Package random provides the seeded draw service shared by network growth
// and wiring. Every draw advances a single stream, so the order of calls
// across the whole program determines the values that come out of it.
package random

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// source adapts a PCG generator to the Source interfaces expected by both
// math/rand/v2 and gonum's distributions.
type source struct {
	pcg *rand.PCG
}

func (s *source) Uint64() uint64 { return s.pcg.Uint64() }

// Seed reseeds the stream.
func (s *source) Seed(seed uint64) { s.pcg.Seed(seed, seed) }

// Generator is a reproducible random draw service.
// It is not safe for concurrent use.
type Generator struct {
	seed uint64
	src  *source
	rnd  *rand.Rand
}

// New creates a Generator. A zero seed draws fresh entropy from the runtime;
// any other seed yields the same sequence for the same sequence of calls.
func New(seed uint64) *Generator {
	for seed == 0 {
		seed = rand.Uint64()
	}
	src := &source{pcg: rand.NewPCG(seed, seed)}
	return &Generator{
		seed: seed,
		src:  src,
		rnd:  rand.New(src),
	}
}

// Seed returns the effective seed. For entropy-seeded generators this is the
// value that was drawn, so the run can be replayed.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Uniform returns one draw from [lower, upper).
func (g *Generator) Uniform(lower, upper float64) float64 {
	return distuv.Uniform{Min: lower, Max: upper, Src: g.src}.Rand()
}

// UniformN returns k independent draws from [lower, upper).
func (g *Generator) UniformN(lower, upper float64, k int) []float64 {
	d := distuv.Uniform{Min: lower, Max: upper, Src: g.src}
	return fill(k, d.Rand)
}

// Normal returns one draw from N(mean, sd).
func (g *Generator) Normal(mean, sd float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: sd, Src: g.src}.Rand()
}

// NormalN returns k independent draws from N(mean, sd).
func (g *Generator) NormalN(mean, sd float64, k int) []float64 {
	d := distuv.Normal{Mu: mean, Sigma: sd, Src: g.src}
	return fill(k, d.Rand)
}

// Poisson returns one non-negative draw with the given mean.
// A non-positive mean always yields 0 without consuming the stream.
func (g *Generator) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: mean, Src: g.src}.Rand())
}

// PoissonN returns k independent Poisson draws with the given mean.
func (g *Generator) PoissonN(mean float64, k int) []int {
	if k <= 0 {
		return []int{}
	}
	out := make([]int, k)
	if mean <= 0 {
		return out
	}
	d := distuv.Poisson{Lambda: mean, Src: g.src}
	for i := range out {
		out[i] = int(d.Rand())
	}
	return out
}

// Shuffle permutes xs in place, uniformly at random.
func (g *Generator) Shuffle(xs []int) {
	g.rnd.Shuffle(len(xs), func(i, j int) {
		xs[i], xs[j] = xs[j], xs[i]
	})
}

func fill(k int, draw func() float64) []float64 {
	if k <= 0 {
		return []float64{}
	}
	out := make([]float64, k)
	for i := range out {
		out[i] = draw()
	}
	return out
}
