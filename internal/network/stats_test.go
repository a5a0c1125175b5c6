package network

import (
	"math"
	"testing"

	"github.com/nvandessel/spiknet/internal/neuron"
	"github.com/nvandessel/spiknet/internal/random"
)

func TestTypeAccessors(t *testing.T) {
	net := New()
	rng := random.New(5)
	net.Resize(6, 0, rng)
	net.SetDefaultParams([]TypeCount{{Name: "LTS", Count: 1}, {Name: "FS", Count: 2}}, 0, rng)

	want := []string{"FS", "FS", "LTS", "RS", "RS", "RS"}
	for i, name := range want {
		if got := net.TypeOf(i); got != name {
			t.Errorf("TypeOf(%d) = %q, want %q", i, got, name)
		}
	}
	if !net.IsInhibitory(2) || net.IsInhibitory(3) {
		t.Errorf("IsInhibitory(2), IsInhibitory(3) = %v, %v; want true, false", net.IsInhibitory(2), net.IsInhibitory(3))
	}

	if i, ok := net.FirstOfType("RS"); !ok || i != 3 {
		t.Errorf("FirstOfType(RS) = %d, %v; want 3, true", i, ok)
	}
	if _, ok := net.FirstOfType("TC"); ok {
		t.Error("FirstOfType(TC) found a unit in a network without TC")
	}

	counts := net.TypeCounts()
	wantCounts := []TypeCount{{"FS", 2}, {"LTS", 1}, {"RS", 3}}
	if len(counts) != len(wantCounts) {
		t.Fatalf("TypeCounts() = %v, want %v", counts, wantCounts)
	}
	for i := range wantCounts {
		if counts[i] != wantCounts[i] {
			t.Errorf("TypeCounts()[%d] = %v, want %v", i, counts[i], wantCounts[i])
		}
	}
}

func TestPotentialsAndRecoveries(t *testing.T) {
	net := New()
	net.Resize(3, 0, random.New(1))
	net.SetPotentials([]float64{-70, -50}, 1)

	v := net.Potentials()
	if v[0] != neuron.RestingPotential || v[1] != -70 || v[2] != -50 {
		t.Errorf("Potentials() = %v", v)
	}
	if got := len(net.Recoveries()); got != 3 {
		t.Errorf("len(Recoveries()) = %d, want 3", got)
	}
}

func TestSpikingAndFiringNow(t *testing.T) {
	net, stubs := newStubNetwork(t, 4)
	stubs[1].v = neuron.Threshold
	stubs[3].v = neuron.Threshold
	stubs[3].firing = true
	stubs[0].firing = true

	spiking := net.Spiking()
	if len(spiking) != 2 || spiking[0] != 1 || spiking[1] != 3 {
		t.Errorf("Spiking() = %v, want [1 3]", spiking)
	}
	pending := net.FiringNow()
	if len(pending) != 2 || pending[0] != 0 || pending[1] != 3 {
		t.Errorf("FiringNow() = %v, want [0 3]", pending)
	}
}

func TestDegreeStats(t *testing.T) {
	net, _ := newStubNetwork(t, 4)
	mustAddLink(t, net, 0, 1, 1)
	mustAddLink(t, net, 0, 2, 3)
	mustAddLink(t, net, 1, 2, 2)

	s := net.DegreeStats()
	// Degrees 2, 1, 0, 0; valences 4, 2, 0, 0.
	if s.MeanDegree != 0.75 {
		t.Errorf("MeanDegree = %v, want 0.75", s.MeanDegree)
	}
	if s.MeanValence != 1.5 {
		t.Errorf("MeanValence = %v, want 1.5", s.MeanValence)
	}
	if math.Abs(s.StdDegree-math.Sqrt(11.0/12.0)) > 1e-12 {
		t.Errorf("StdDegree = %v, want %v", s.StdDegree, math.Sqrt(11.0/12.0))
	}
	if s.IsolatedUnits != 2 {
		t.Errorf("IsolatedUnits = %d, want 2", s.IsolatedUnits)
	}
}

func TestDegreeStats_SmallNetworks(t *testing.T) {
	if s := New().DegreeStats(); s != (DegreeSummary{}) {
		t.Errorf("empty network DegreeStats() = %+v, want zero", s)
	}

	net, _ := newStubNetwork(t, 1)
	s := net.DegreeStats()
	if s.StdDegree != 0 || s.IsolatedUnits != 1 || math.IsNaN(s.StdValence) {
		t.Errorf("single unit DegreeStats() = %+v", s)
	}
}
