// Package neuron implements the Izhikevich point neuron used as the unit of
// the spiking network.
//
// Each neuron integrates
//
//	v' = 0.04v^2 + 5v + 140 - u + I
//	u' = a(bv - u)
//
// and, when v reaches Threshold, emits a spike and is reset (v = c, u += d)
// at the start of its next tick so the peak stays observable for one tick.
package neuron

import (
	"fmt"
	"sort"
)

// Threshold is the spike peak in mV.
const Threshold = 30.0

// RestingPotential is the initial membrane potential in mV.
const RestingPotential = -65.0

// Params holds the four Izhikevich parameters.
type Params struct {
	A float64 `json:"a" yaml:"a"` // recovery time scale
	B float64 `json:"b" yaml:"b"` // recovery sensitivity to v
	C float64 `json:"c" yaml:"c"` // after-spike reset of v
	D float64 `json:"d" yaml:"d"` // after-spike increment of u
}

// typeSpec describes a built-in type: base parameters, the spread applied
// with a jitter value r in [0,1), and the inhibitory classification.
// a and b move linearly with r, c and d with r^2.
type typeSpec struct {
	base       Params
	spread     Params
	inhibitory bool
}

// RS is the excitatory baseline type; FS is the inhibitory baseline type.
const (
	RS = "RS"
	FS = "FS"
)

var types = map[string]typeSpec{
	RS:    {base: Params{A: 0.02, B: 0.2, C: -65, D: 8}, spread: Params{C: 15, D: -6}},
	FS:    {base: Params{A: 0.02, B: 0.25, C: -65, D: 2}, spread: Params{A: 0.08, B: -0.05}, inhibitory: true},
	"IB":  {base: Params{A: 0.02, B: 0.2, C: -55, D: 4}, spread: Params{C: 5, D: -2}},
	"CH":  {base: Params{A: 0.02, B: 0.2, C: -50, D: 2}},
	"LTS": {base: Params{A: 0.02, B: 0.25, C: -65, D: 2}, spread: Params{A: 0.08, B: -0.05}, inhibitory: true},
	"TC":  {base: Params{A: 0.02, B: 0.25, C: -65, D: 0.05}},
	"RZ":  {base: Params{A: 0.1, B: 0.26, C: -65, D: 2}},
}

// TypeExists reports whether name is a built-in neuron type.
func TypeExists(name string) bool {
	_, ok := types[name]
	return ok
}

// TypeNames returns the built-in type names in lexicographic order.
func TypeNames() []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultParams returns the parameters of a built-in type perturbed by the
// jitter value r. Unknown types fall back to RS.
func DefaultParams(name string, r float64) Params {
	ts, ok := types[name]
	if !ok {
		ts = types[RS]
	}
	return Params{
		A: ts.base.A + ts.spread.A*r,
		B: ts.base.B + ts.spread.B*r,
		C: ts.base.C + ts.spread.C*r*r,
		D: ts.base.D + ts.spread.D*r*r,
	}
}

// Neuron is a single Izhikevich unit. The zero value is not usable; create
// neurons with New.
type Neuron struct {
	typ        string
	inhibitory bool
	params     Params

	v      float64 // membrane potential
	u      float64 // recovery variable
	input  float64 // input current for the next tick
	spiked bool    // reached Threshold during the last tick
	firing bool    // spike visible to the network until Reset
}

// New creates an RS neuron at rest with unjittered parameters.
func New() *Neuron {
	n := &Neuron{}
	n.SetDefaultParams(RS, 0)
	return n
}

// Type returns the neuron's type name.
func (n *Neuron) Type() string { return n.typ }

// IsType reports whether the neuron has the given type name.
func (n *Neuron) IsType(name string) bool { return n.typ == name }

// IsInhibitory reports whether the neuron is classified inhibitory.
func (n *Neuron) IsInhibitory() bool { return n.inhibitory }

// SetType changes the type name and classification without touching
// parameters or state. Unknown names are kept verbatim and are excitatory.
func (n *Neuron) SetType(name string) {
	n.typ = name
	n.inhibitory = types[name].inhibitory
}

// SetDefaultParams assigns the type and its jittered default parameters,
// and puts the neuron at rest.
func (n *Neuron) SetDefaultParams(name string, jitter float64) {
	if !TypeExists(name) {
		name = RS
	}
	n.SetType(name)
	n.params = DefaultParams(name, jitter)
	n.v = RestingPotential
	n.u = n.params.B * n.v
	n.input = 0
	n.spiked = false
	n.firing = false
}

// Params returns the current parameters.
func (n *Neuron) Params() Params { return n.params }

// SetParams overwrites the parameters; state is kept.
func (n *Neuron) SetParams(p Params) { n.params = p }

// Potential returns the membrane potential.
func (n *Neuron) Potential() float64 { return n.v }

// SetPotential overwrites the membrane potential.
func (n *Neuron) SetPotential(v float64) { n.v = v }

// Recovery returns the recovery variable.
func (n *Neuron) Recovery() float64 { return n.u }

// Input returns the input current applied on the next tick.
func (n *Neuron) Input() float64 { return n.input }

// SetInput sets the input current applied on the next tick.
func (n *Neuron) SetInput(i float64) { n.input = i }

// Firing reports whether the neuron has an unconsumed spike.
func (n *Neuron) Firing() bool { return n.firing }

// Reset consumes the current spike.
func (n *Neuron) Reset() { n.firing = false }

// Step advances the neuron by one 1ms tick, using two 0.5ms half steps for v
// for numerical stability.
func (n *Neuron) Step() {
	if n.spiked {
		n.v = n.params.C
		n.u += n.params.D
	}

	for k := 0; k < 2; k++ {
		n.v += 0.5 * (0.04*n.v*n.v + 5*n.v + 140 - n.u + n.input)
	}
	n.u += n.params.A * (n.params.B*n.v - n.u)

	n.spiked = n.v >= Threshold
	if n.spiked {
		n.v = Threshold
	}
	n.firing = n.spiked
}

// FormatParams returns "type a b c d inhibitory" as a tab separated row.
func (n *Neuron) FormatParams() string {
	inhib := 0
	if n.inhibitory {
		inhib = 1
	}
	return fmt.Sprintf("%s\t%.3f\t%.3f\t%.3f\t%.3f\t%d",
		n.typ, n.params.A, n.params.B, n.params.C, n.params.D, inhib)
}

// FormatValues returns "v u I" as a tab separated row.
func (n *Neuron) FormatValues() string {
	return fmt.Sprintf("%.3f\t%.3f\t%.3f", n.v, n.u, n.input)
}
