package network

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/spiknet/internal/neuron"
	"github.com/nvandessel/spiknet/internal/random"
)

// stubUnit records what the network does to it and lets tests control the
// firing flag.
type stubUnit struct {
	typ        string
	inhibitory bool
	params     neuron.Params
	jitter     float64

	v, u   float64
	firing bool
	input  float64
	steps  int
	resets int

	fireOnStep bool
}

func (s *stubUnit) IsType(name string) bool { return s.typ == name }
func (s *stubUnit) IsInhibitory() bool      { return s.inhibitory }
func (s *stubUnit) SetType(name string) {
	s.typ = name
	s.inhibitory = name == neuron.FS || name == "LTS"
}
func (s *stubUnit) SetDefaultParams(name string, jitter float64) {
	s.SetType(name)
	s.jitter = jitter
	s.params = neuron.DefaultParams(name, jitter)
}
func (s *stubUnit) SetParams(p neuron.Params) { s.params = p }
func (s *stubUnit) Potential() float64        { return s.v }
func (s *stubUnit) SetPotential(v float64)    { s.v = v }
func (s *stubUnit) Recovery() float64         { return s.u }
func (s *stubUnit) Step() {
	s.steps++
	if s.fireOnStep {
		s.firing = true
	}
}
func (s *stubUnit) Firing() bool         { return s.firing }
func (s *stubUnit) Reset()               { s.firing = false; s.resets++ }
func (s *stubUnit) SetInput(i float64)   { s.input = i }
func (s *stubUnit) FormatParams() string { return s.typ }
func (s *stubUnit) FormatValues() string { return "" }

// newStubNetwork builds a network of stub units, all RS except the given
// inhibitory indices.
func newStubNetwork(t *testing.T, size int, inhibitory ...int) (*Network, []*stubUnit) {
	t.Helper()
	var stubs []*stubUnit
	net := New(WithUnitFactory(func() Unit {
		s := &stubUnit{}
		stubs = append(stubs, s)
		return s
	}))
	net.Resize(size, 0, random.New(1))
	for _, i := range inhibitory {
		stubs[i].SetType(neuron.FS)
	}
	return net, stubs
}

// stubAt returns the stub behind unit i, including units appended after
// newStubNetwork returned.
func stubAt(net *Network, i int) *stubUnit {
	return net.units[i].(*stubUnit)
}

func mustAddLink(t *testing.T, net *Network, a, b int, s float64) {
	t.Helper()
	if !net.AddLink(a, b, s) {
		t.Fatalf("AddLink(%d, %d, %v) = false, want true", a, b, s)
	}
}

func TestResize_Grow(t *testing.T) {
	net := New()
	net.Resize(10, 0.2, random.New(42))

	if net.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", net.Size())
	}
	inhib := 0
	for i := 0; i < net.Size(); i++ {
		if net.IsInhibitory(i) {
			inhib++
		}
	}
	if inhib != 2 {
		t.Errorf("inhibitory units = %d, want 2", inhib)
	}
	if net.TypeOf(0) != neuron.FS || net.TypeOf(1) != neuron.FS || net.TypeOf(2) != neuron.RS {
		t.Errorf("types = %s %s %s, want FS FS RS", net.TypeOf(0), net.TypeOf(1), net.TypeOf(2))
	}
}

func TestResize_ShrinkIsNoop(t *testing.T) {
	net := New()
	rng := random.New(1)
	net.Resize(5, 0, rng)
	mustAddLink(t, net, 0, 1, 1)

	net.Resize(3, 0.5, rng)
	net.Resize(5, 0.5, rng)

	if net.Size() != 5 {
		t.Errorf("Size() = %d, want 5", net.Size())
	}
	if net.NumLinks() != 1 {
		t.Errorf("NumLinks() = %d, want 1", net.NumLinks())
	}
	for i := 0; i < 5; i++ {
		if net.IsInhibitory(i) {
			t.Errorf("unit %d changed type after no-op resize", i)
		}
	}
}

func TestResize_AppendOnlyTouchesNewRange(t *testing.T) {
	net, stubs := newStubNetwork(t, 4)
	for _, s := range stubs {
		s.typ = "keep"
	}

	net.Resize(8, 0.5, random.New(3))

	for i := 0; i < 4; i++ {
		if stubs[i].typ != "keep" {
			t.Errorf("unit %d retyped to %q", i, stubs[i].typ)
		}
	}
	want := []string{neuron.FS, neuron.FS, neuron.RS, neuron.RS}
	for i, w := range want {
		if got := stubAt(net, 4+i).typ; got != w {
			t.Errorf("unit %d type = %q, want %q", 4+i, got, w)
		}
	}
}

func TestSetDefaultParams_LexicographicOrder(t *testing.T) {
	net, stubs := newStubNetwork(t, 10)

	// Supplied out of order and with an unknown type in the middle.
	net.SetDefaultParams([]TypeCount{
		{Name: "LTS", Count: 2},
		{Name: "bogus", Count: 3},
		{Name: "CH", Count: 1},
		{Name: "FS", Count: 2},
	}, 0, random.New(5))

	want := []string{"CH", "FS", "FS", "LTS", "LTS", "RS", "RS", "RS", "RS", "RS"}
	for i, w := range want {
		if stubs[i].typ != w {
			t.Errorf("unit %d type = %q, want %q", i, stubs[i].typ, w)
		}
	}
}

func TestSetDefaultParams_JitterPerUnit(t *testing.T) {
	net, stubs := newStubNetwork(t, 6)
	net.SetDefaultParams(nil, 2, random.New(9))

	want := random.New(9).UniformN(0, 1, 4)
	for i, w := range want {
		if stubs[2+i].jitter != w {
			t.Errorf("unit %d jitter = %v, want %v", 2+i, stubs[2+i].jitter, w)
		}
	}
}

func TestSetDefaultParams_OverflowingCounts(t *testing.T) {
	net, stubs := newStubNetwork(t, 3)
	net.SetDefaultParams([]TypeCount{{Name: "FS", Count: 10}}, 0, random.New(1))
	for i, s := range stubs {
		if s.typ != neuron.FS {
			t.Errorf("unit %d type = %q, want FS", i, s.typ)
		}
	}
}

func TestSetTypesParams(t *testing.T) {
	net := New()
	net.Resize(4, 0, random.New(1))

	p := neuron.Params{A: 0.1, B: 0.2, C: -60, D: 3}
	net.SetTypesParams([]string{"FS", "IB"}, []neuron.Params{p, p}, 1)

	if net.TypeOf(0) != neuron.RS || net.TypeOf(1) != neuron.FS || net.TypeOf(2) != "IB" || net.TypeOf(3) != neuron.RS {
		t.Errorf("types = %s %s %s %s", net.TypeOf(0), net.TypeOf(1), net.TypeOf(2), net.TypeOf(3))
	}
	if !net.IsInhibitory(1) {
		t.Error("unit 1 should be inhibitory after SetTypesParams(FS)")
	}
}

func TestSetPotentials(t *testing.T) {
	net := New()
	net.Resize(4, 0, random.New(1))
	net.SetPotentials([]float64{1, 2}, 2)

	got := net.Potentials()
	want := []float64{neuron.RestingPotential, neuron.RestingPotential, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Potentials()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAddLink(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int
		strength float64
		want     bool
	}{
		{"valid", 0, 1, 1.0, true},
		{"self loop", 0, 0, 1.0, false},
		{"source out of range", 5, 1, 1.0, false},
		{"target out of range", 1, 5, 1.0, false},
		{"negative index", -1, 1, 1.0, false},
		{"too weak", 0, 2, 1e-7, false},
		{"negative too weak", 0, 2, -1e-7, false},
		{"minimum strength", 0, 2, 1e-6, true},
		{"negative strength", 2, 0, -0.5, true},
		{"NaN", 1, 2, math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := New()
			net.Resize(5, 0, random.New(1))
			if got := net.AddLink(tt.a, tt.b, tt.strength); got != tt.want {
				t.Errorf("AddLink(%d, %d, %v) = %v, want %v", tt.a, tt.b, tt.strength, got, tt.want)
			}
		})
	}
}

func TestAddLink_DuplicateRejected(t *testing.T) {
	net := New()
	net.Resize(3, 0, random.New(1))

	mustAddLink(t, net, 0, 1, 1.0)
	if net.AddLink(0, 1, 2.0) {
		t.Error("duplicate AddLink should fail")
	}
	if w, _ := net.Link(0, 1); w != 1.0 {
		t.Errorf("weight = %v, want 1.0 (not overwritten)", w)
	}
	// Reverse direction is a different pair.
	mustAddLink(t, net, 1, 0, 2.0)
	if net.NumLinks() != 2 {
		t.Errorf("NumLinks() = %d, want 2", net.NumLinks())
	}
}

func TestAddLink_InhibitoryTarget(t *testing.T) {
	net, _ := newStubNetwork(t, 3, 1)

	mustAddLink(t, net, 0, 1, 1.5)
	mustAddLink(t, net, 1, 2, 1.5)

	if w, ok := net.Link(0, 1); !ok || w != -3.0 {
		t.Errorf("Link(0,1) = %v, %v; want -3, true", w, ok)
	}
	// Source classification does not matter.
	if w, ok := net.Link(1, 2); !ok || w != 1.5 {
		t.Errorf("Link(1,2) = %v, %v; want 1.5, true", w, ok)
	}
	if _, ok := net.Link(2, 0); ok {
		t.Error("Link(2,0) should not exist")
	}
}

func TestNeighbors_SortedAndConsistentWithDegree(t *testing.T) {
	net, _ := newStubNetwork(t, 6, 4)
	mustAddLink(t, net, 0, 5, 1)
	mustAddLink(t, net, 0, 2, 2)
	mustAddLink(t, net, 0, 4, 0.5)
	mustAddLink(t, net, 0, 1, 3)

	nb := net.Neighbors(0)
	wantTargets := []int{1, 2, 4, 5}
	if len(nb) != len(wantTargets) {
		t.Fatalf("len(Neighbors(0)) = %d, want %d", len(nb), len(wantTargets))
	}
	for i, w := range wantTargets {
		if nb[i].Target != w {
			t.Errorf("Neighbors(0)[%d].Target = %d, want %d", i, nb[i].Target, w)
		}
	}

	for i := 0; i < net.Size(); i++ {
		count, sum := net.Degree(i)
		links := net.Neighbors(i)
		var want float64
		for _, l := range links {
			want += l.Weight
		}
		if count != len(links) || sum != want {
			t.Errorf("Degree(%d) = (%d, %v), want (%d, %v)", i, count, sum, len(links), want)
		}
	}

	count, sum := net.Degree(0)
	if count != 4 || sum != 1+2-1+3 {
		t.Errorf("Degree(0) = (%d, %v), want (4, 5)", count, sum)
	}
}

func TestNeighbors_ReturnsCopy(t *testing.T) {
	net := New()
	net.Resize(3, 0, random.New(1))
	mustAddLink(t, net, 0, 1, 1)

	nb := net.Neighbors(0)
	nb[0].Weight = 99
	if w, _ := net.Link(0, 1); w != 1 {
		t.Errorf("mutating Neighbors result changed the network: %v", w)
	}
}

func TestRandomConnect_GraphShape(t *testing.T) {
	net := New()
	rng := random.New(2024)
	net.Resize(50, 0.2, rng)
	mustAddLink(t, net, 0, 1, 1)

	const meanStrength = 3.0
	created := net.RandomConnect(5, meanStrength, rng)

	if created != net.NumLinks() {
		t.Errorf("created = %d, NumLinks() = %d", created, net.NumLinks())
	}
	if created == 0 {
		t.Fatal("expected some links")
	}

	total := 0
	for i := 0; i < net.Size(); i++ {
		seen := make(map[int]bool)
		for _, l := range net.Neighbors(i) {
			if l.Target == i {
				t.Errorf("self loop at %d", i)
			}
			if seen[l.Target] {
				t.Errorf("duplicate link %d->%d", i, l.Target)
			}
			seen[l.Target] = true

			mag := l.Weight
			if net.IsInhibitory(l.Target) {
				mag = l.Weight / -2
			}
			if mag < MinStrength || mag >= 2*meanStrength {
				t.Errorf("link %d->%d magnitude %v outside [1e-6, %v)", i, l.Target, mag, 2*meanStrength)
			}
			total++
		}
	}
	if total != created {
		t.Errorf("counted %d links, RandomConnect returned %d", total, created)
	}
}

func TestRandomConnect_Reproducible(t *testing.T) {
	build := func() *Network {
		net := New()
		rng := random.New(77)
		net.Resize(30, 0.2, rng)
		net.RandomConnect(4, 2, rng)
		return net
	}
	a, b := build(), build()

	if a.NumLinks() != b.NumLinks() {
		t.Fatalf("NumLinks = %d vs %d", a.NumLinks(), b.NumLinks())
	}
	for i := 0; i < a.Size(); i++ {
		la, lb := a.Neighbors(i), b.Neighbors(i)
		if len(la) != len(lb) {
			t.Fatalf("unit %d degree %d vs %d", i, len(la), len(lb))
		}
		for k := range la {
			if la[k] != lb[k] {
				t.Errorf("unit %d link %d: %+v vs %+v", i, k, la[k], lb[k])
			}
		}
	}
}

func TestRandomConnect_DegreeCappedBySize(t *testing.T) {
	net := New()
	rng := random.New(8)
	net.Resize(4, 0, rng)

	// A huge mean degree cannot exceed size-1 per unit.
	created := net.RandomConnect(100, 1, rng)
	if created != 4*3 {
		t.Errorf("created = %d, want 12 (complete graph)", created)
	}
}

func TestRandomConnect_ZeroDegree(t *testing.T) {
	net := New()
	rng := random.New(8)
	net.Resize(5, 0, rng)
	mustAddLink(t, net, 0, 1, 1)

	if created := net.RandomConnect(0, 1, rng); created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
	if net.NumLinks() != 0 {
		t.Errorf("NumLinks() = %d, want 0 after regeneration", net.NumLinks())
	}
}

func TestStep_InputLength(t *testing.T) {
	net := New()
	net.Resize(3, 0, random.New(1))

	_, err := net.Step([]float64{1, 2})
	if !errors.Is(err, ErrInputLength) {
		t.Errorf("Step() error = %v, want ErrInputLength", err)
	}
}

func TestStep_AllIndicesInFiringSet(t *testing.T) {
	net := New()
	rng := random.New(3)
	net.Resize(20, 0.2, rng)
	net.RandomConnect(3, 2, rng)

	for tick := 0; tick < 10; tick++ {
		set, err := net.Step(rng.NormalN(0, 5, net.Size()))
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if len(set) != net.Size() {
			t.Fatalf("tick %d: len(set) = %d, want %d", tick, len(set), net.Size())
		}
		for i, idx := range set {
			if idx != i {
				t.Fatalf("tick %d: set[%d] = %d", tick, i, idx)
			}
		}
	}
}

func TestStep_PendingSpikePropagates(t *testing.T) {
	net, stubs := newStubNetwork(t, 3)
	mustAddLink(t, net, 0, 1, 1.0)
	stubs[1].firing = true

	set, err := net.Step([]float64{0, 0, 0})
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if len(set) != 3 {
		t.Errorf("set = %v, want all three units", set)
	}
	if stubs[1].firing {
		t.Error("unit 1 spike should be consumed")
	}
	if stubs[1].resets != 1 {
		t.Errorf("unit 1 resets = %d, want 1", stubs[1].resets)
	}
	// Unit 0 gets 0.5 * 1.0 from the excitatory total.
	if stubs[0].input != 0.5 {
		t.Errorf("unit 0 input = %v, want 0.5", stubs[0].input)
	}
	// The totals run across the sweep, so later units see them too.
	if stubs[1].input != 0.5 || stubs[2].input != 0.5 {
		t.Errorf("inputs = %v %v, want 0.5 0.5", stubs[1].input, stubs[2].input)
	}
	for i, s := range stubs {
		if s.steps != 1 {
			t.Errorf("unit %d steps = %d, want 1", i, s.steps)
		}
	}
}

func TestStep_InhibitoryNeighbor(t *testing.T) {
	net, stubs := newStubNetwork(t, 2, 1)
	mustAddLink(t, net, 0, 1, 1.0) // stored as -2
	stubs[1].firing = true

	if _, err := net.Step([]float64{10, 10}); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	// Excitatory unit 0: 10/5*5 - (-2) = 12.
	if stubs[0].input != 12 {
		t.Errorf("unit 0 input = %v, want 12", stubs[0].input)
	}
	// Inhibitory unit 1: 10/5*2 - (-2) = 6.
	if stubs[1].input != 6 {
		t.Errorf("unit 1 input = %v, want 6", stubs[1].input)
	}
}

func TestStep_FirstObserverConsumesSpike(t *testing.T) {
	net, stubs := newStubNetwork(t, 3)
	mustAddLink(t, net, 0, 2, 1.0)
	mustAddLink(t, net, 1, 2, 4.0)
	stubs[2].firing = true

	if _, err := net.Step([]float64{0, 0, 0}); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	// Only unit 0 sees the spike; unit 1 adds nothing of its own.
	if stubs[0].input != 0.5 || stubs[1].input != 0.5 {
		t.Errorf("inputs = %v %v, want 0.5 0.5", stubs[0].input, stubs[1].input)
	}
	if stubs[2].resets != 1 {
		t.Errorf("unit 2 resets = %d, want 1", stubs[2].resets)
	}
}

func TestStep_EarlierUnitSeesLaterSpikeOnlyNextTick(t *testing.T) {
	net, stubs := newStubNetwork(t, 2)
	mustAddLink(t, net, 0, 1, 2.0)
	stubs[1].fireOnStep = true

	// Tick 1: unit 0 scans before unit 1 has stepped.
	if _, err := net.Step([]float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	if stubs[0].input != 0 {
		t.Errorf("tick 1: unit 0 input = %v, want 0", stubs[0].input)
	}
	if got := net.FiringNow(); len(got) != 1 || got[0] != 1 {
		t.Errorf("tick 1: FiringNow() = %v, want [1]", got)
	}

	// Tick 2: the spike left pending by tick 1 is consumed.
	if _, err := net.Step([]float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	if stubs[0].input != 1.0 {
		t.Errorf("tick 2: unit 0 input = %v, want 1.0", stubs[0].input)
	}
}

func TestStep_EmptyNetwork(t *testing.T) {
	net := New()
	set, err := net.Step(nil)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v, want empty", set)
	}
}
