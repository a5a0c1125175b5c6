package network

import (
	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/spiknet/internal/neuron"
)

// Potentials returns the potential of every unit, in index order.
func (n *Network) Potentials() []float64 {
	vals := make([]float64, n.Size())
	for i, u := range n.units {
		vals[i] = u.Potential()
	}
	return vals
}

// Recoveries returns the recovery variable of every unit, in index order.
func (n *Network) Recoveries() []float64 {
	vals := make([]float64, n.Size())
	for i, u := range n.units {
		vals[i] = u.Recovery()
	}
	return vals
}

// IsInhibitory reports whether unit i is inhibitory.
func (n *Network) IsInhibitory(i int) bool {
	return n.units[i].IsInhibitory()
}

// TypeOf returns the built-in type name of unit i, or "" if the unit carries
// a name that is not built in.
func (n *Network) TypeOf(i int) string {
	for _, name := range neuron.TypeNames() {
		if n.units[i].IsType(name) {
			return name
		}
	}
	return ""
}

// FirstOfType returns the lowest index of a unit with the given type.
func (n *Network) FirstOfType(name string) (int, bool) {
	for i, u := range n.units {
		if u.IsType(name) {
			return i, true
		}
	}
	return 0, false
}

// TypeCounts returns how many units carry each built-in type, by name.
// Types with no units are omitted.
func (n *Network) TypeCounts() []TypeCount {
	var counts []TypeCount
	for _, name := range neuron.TypeNames() {
		c := 0
		for _, u := range n.units {
			if u.IsType(name) {
				c++
			}
		}
		if c > 0 {
			counts = append(counts, TypeCount{Name: name, Count: c})
		}
	}
	return counts
}

// FiringNow returns the units whose spike is still pending.
func (n *Network) FiringNow() []int {
	var idx []int
	for i, u := range n.units {
		if u.Firing() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Spiking returns the units whose potential is at or above neuron.Threshold,
// i.e. the units that crossed threshold on the last tick whether or not their
// spike has since been consumed.
func (n *Network) Spiking() []int {
	var idx []int
	for i, u := range n.units {
		if u.Potential() >= neuron.Threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// FormatParams returns unit i's parameter row.
func (n *Network) FormatParams(i int) string {
	return n.units[i].FormatParams()
}

// FormatValues returns unit i's state row.
func (n *Network) FormatValues(i int) string {
	return n.units[i].FormatValues()
}

// DegreeSummary describes the spread of out-degrees and valences.
type DegreeSummary struct {
	MeanDegree    float64 `json:"mean_degree"`
	StdDegree     float64 `json:"std_degree"`
	MeanValence   float64 `json:"mean_valence"`
	StdValence    float64 `json:"std_valence"`
	IsolatedUnits int     `json:"isolated_units"`
}

// DegreeStats summarizes Degree over all units.
func (n *Network) DegreeStats() DegreeSummary {
	var s DegreeSummary
	if n.Size() == 0 {
		return s
	}
	degrees := make([]float64, n.Size())
	valences := make([]float64, n.Size())
	for i := range n.units {
		d, v := n.Degree(i)
		degrees[i] = float64(d)
		valences[i] = v
		if d == 0 {
			s.IsolatedUnits++
		}
	}
	if n.Size() == 1 {
		s.MeanDegree, s.MeanValence = degrees[0], valences[0]
		return s
	}
	s.MeanDegree, s.StdDegree = stat.MeanStdDev(degrees, nil)
	s.MeanValence, s.StdValence = stat.MeanStdDev(valences, nil)
	return s
}
