// Package network implements the spiking network: an index-addressed
// sequence of units wired by a directed, weighted synapse graph, advanced one
// tick at a time with spikes propagated along synapses within the same tick.
package network

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/nvandessel/spiknet/internal/neuron"
	"github.com/nvandessel/spiknet/internal/random"
)

// MinStrength is the smallest accepted synapse magnitude.
const MinStrength = 1e-6

// ErrInputLength is returned by Step when the input vector does not have one
// value per unit.
var ErrInputLength = errors.New("network: input length does not match network size")

// Unit is the contract the network needs from a neuron.
type Unit interface {
	IsType(name string) bool
	IsInhibitory() bool
	SetType(name string)
	SetDefaultParams(typeName string, jitter float64)
	SetParams(p neuron.Params)

	Potential() float64
	SetPotential(v float64)
	Recovery() float64
	Step()
	Firing() bool
	Reset()
	SetInput(i float64)

	FormatParams() string
	FormatValues() string
}

// Link is an outgoing synapse as seen from its source.
type Link struct {
	Target int
	Weight float64
}

// TypeCount requests count units of the named type.
type TypeCount struct {
	Name  string
	Count int
}

type pair struct {
	source, target int
}

// Network owns its units and synapses. It is not safe for concurrent use.
type Network struct {
	units   []Unit
	newUnit func() Unit

	// out[s] holds the synapses leaving s, sorted by target.
	out   [][]Link
	pairs map[pair]struct{}
	links int
}

// Option configures a Network.
type Option func(*Network)

// WithUnitFactory sets the constructor used when the network grows.
func WithUnitFactory(f func() Unit) Option {
	return func(n *Network) { n.newUnit = f }
}

// New creates an empty network of Izhikevich neurons.
func New(opts ...Option) *Network {
	n := &Network{
		newUnit: func() Unit { return neuron.New() },
		pairs:   make(map[pair]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Size returns the number of units.
func (n *Network) Size() int {
	return len(n.units)
}

// NumLinks returns the number of synapses.
func (n *Network) NumLinks() int {
	return n.links
}

// Resize grows the network to size units. Shrinking is a no-op. The appended
// units get default parameters, round(inhibitory*appended) of them as FS and
// the rest as RS.
func (n *Network) Resize(size int, inhibitory float64, rng *random.Generator) {
	old := n.Size()
	if size <= old {
		return
	}
	for i := old; i < size; i++ {
		n.units = append(n.units, n.newUnit())
		n.out = append(n.out, nil)
	}
	nfs := int(inhibitory*float64(size-old) + 0.5)
	n.SetDefaultParams([]TypeCount{{Name: neuron.FS, Count: nfs}}, old, rng)
}

// SetDefaultParams assigns types and jittered default parameters to the
// units from start to the end of the network. Requests are served in
// lexicographic order of type name, each taking the next Count unassigned
// units; unknown type names are ignored. Units left over become RS.
func (n *Network) SetDefaultParams(counts []TypeCount, start int, rng *random.Generator) {
	span := n.Size() - start
	if span <= 0 {
		return
	}
	jitter := rng.UniformN(0, 1, span)

	ordered := append([]TypeCount(nil), counts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	k, kmax := 0, 0
	for _, tc := range ordered {
		if !neuron.TypeExists(tc.Name) {
			continue
		}
		for kmax += tc.Count; k < kmax && k < span; k++ {
			n.units[start+k].SetDefaultParams(tc.Name, jitter[k])
		}
	}
	for ; k < span; k++ {
		n.units[start+k].SetDefaultParams(neuron.RS, jitter[k])
	}
}

// SetTypesParams overwrites type and parameters of consecutive units
// starting at start. types and params are parallel and must cover units
// inside the network.
func (n *Network) SetTypesParams(types []string, params []neuron.Params, start int) {
	for k := range params {
		n.units[start+k].SetType(types[k])
		n.units[start+k].SetParams(params[k])
	}
}

// SetPotentials overwrites the potential of consecutive units starting at
// start.
func (n *Network) SetPotentials(values []float64, start int) {
	for k, v := range values {
		n.units[start+k].SetPotential(v)
	}
}

// AddLink adds a synapse from a to b and reports whether it was created.
// Self-loops, out of range indices, magnitudes below MinStrength and
// duplicates are rejected. A synapse onto an inhibitory unit is stored with
// weight -2*strength.
func (n *Network) AddLink(a, b int, strength float64) bool {
	if a == b || a < 0 || b < 0 || a >= n.Size() || b >= n.Size() {
		return false
	}
	if math.IsNaN(strength) || math.Abs(strength) < MinStrength {
		return false
	}
	key := pair{a, b}
	if _, exists := n.pairs[key]; exists {
		return false
	}
	if n.units[b].IsInhibitory() {
		strength *= -2
	}

	n.pairs[key] = struct{}{}
	links := n.out[a]
	i := sort.Search(len(links), func(i int) bool { return links[i].Target >= b })
	links = append(links, Link{})
	copy(links[i+1:], links[i:])
	links[i] = Link{Target: b, Weight: strength}
	n.out[a] = links
	n.links++
	return true
}

// Link returns the stored weight of the synapse from a to b.
func (n *Network) Link(a, b int) (float64, bool) {
	if a < 0 || a >= n.Size() {
		return 0, false
	}
	if _, ok := n.pairs[pair{a, b}]; !ok {
		return 0, false
	}
	links := n.out[a]
	i := sort.Search(len(links), func(i int) bool { return links[i].Target >= b })
	return links[i].Weight, true
}

// clearLinks drops every synapse.
func (n *Network) clearLinks() {
	for i := range n.out {
		n.out[i] = nil
	}
	n.pairs = make(map[pair]struct{})
	n.links = 0
}

// RandomConnect replaces all synapses with a random graph. Each unit draws a
// Poisson(meanDegree) out-degree and strengths uniform in
// [MinStrength, 2*meanStrength), then walks a fresh random permutation of
// all units adding synapses until its quota is met. Rejected candidates do
// not count, so a unit can end up below its drawn degree. Returns the number
// of synapses created.
func (n *Network) RandomConnect(meanDegree, meanStrength float64, rng *random.Generator) int {
	n.clearLinks()
	size := n.Size()
	degrees := rng.PoissonN(meanDegree, size)

	order := make([]int, size)
	for i := range order {
		order[i] = i
	}

	created := 0
	for node := 0; node < size; node++ {
		rng.Shuffle(order)
		strengths := rng.UniformN(MinStrength, 2*meanStrength, degrees[node])
		made := 0
		for k := 0; k < size && made < degrees[node]; k++ {
			if n.AddLink(node, order[k], strengths[made]) {
				made++
			}
		}
		created += made
	}
	return created
}

// Degree returns the out-degree of unit i and the sum of its outgoing
// weights.
func (n *Network) Degree(i int) (int, float64) {
	var valence float64
	for _, l := range n.out[i] {
		valence += l.Weight
	}
	return len(n.out[i]), valence
}

// Neighbors returns the synapses leaving unit i, ordered by target.
func (n *Network) Neighbors(i int) []Link {
	return append([]Link(nil), n.out[i]...)
}

// Step advances every unit by one tick, in index order, and returns the
// sorted indices collected into the tick's firing set.
//
// For unit i: the unit steps; then every neighbor whose spike is still
// pending contributes its synapse weight to the running excitatory or
// inhibitory total, joins the firing set and has its spike consumed; i
// itself always joins the firing set; finally i's next input becomes
// input[i]/5*w + 0.5*excitatory - inhibitory, with w = 2 for inhibitory
// units and 5 otherwise. Both totals run across the whole sweep. Updates are
// in place: a unit scanned before its own turn can have its pending spike
// consumed by an earlier unit.
func (n *Network) Step(input []float64) ([]int, error) {
	if len(input) != n.Size() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputLength, len(input), n.Size())
	}

	fired := make([]bool, n.Size())
	var excit, inhib float64
	for i, u := range n.units {
		u.Step()

		w := 5.0
		if u.IsInhibitory() {
			w = 2.0
		}

		for _, l := range n.out[i] {
			nb := n.units[l.Target]
			if !nb.Firing() {
				continue
			}
			if nb.IsInhibitory() {
				inhib += l.Weight
			} else {
				excit += l.Weight
			}
			fired[l.Target] = true
			nb.Reset()
		}

		fired[i] = true
		u.SetInput(input[i]/5*w + 0.5*excit - inhib)
	}

	set := make([]int, 0, len(fired))
	for i, f := range fired {
		if f {
			set = append(set, i)
		}
	}
	return set, nil
}
