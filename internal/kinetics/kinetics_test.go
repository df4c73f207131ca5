package kinetics

import (
	"math"
	"testing"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

func mustBuild(t *testing.T, b *petri.Builder) *petri.Net {
	t.Helper()
	net, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return net
}

func mustRates(t *testing.T, net *petri.Net, m map[string]float64) rates.RateMap {
	t.Helper()
	rm, err := rates.FromMap(net, m, 1)
	if err != nil {
		t.Fatalf("rates failed: %v", err)
	}
	return rm
}

func TestMassActionProduct(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("a", 4).
		Place("b", 3).
		Place("c", 0).
		Transition("t").
		Arc("a", "t", 2).
		Arc("b", "t", 1).
		Arc("t", "c", 1))

	dx, err := Derivative(net, mustRates(t, net, map[string]float64{"t": 0.5}), net.InitialState())
	if err != nil {
		t.Fatal(err)
	}

	// firing = 0.5 * (4/2) * (3/1) = 3
	want := dynamo.State{-6, -3, 3}
	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-12 {
			t.Errorf("dx[%d] = %v, want %v", i, dx[i], want[i])
		}
	}
}

func TestReadArcIsExactlyZero(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("P", 0).
		Place("out", 0).
		Transition("T").
		ReadArc("P", "T", 3).
		Arc("T", "out", 1))

	e, err := New(net, mustRates(t, net, nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, k := range []float64{0, 1, 7.3, 1e6} {
		rm := mustRates(t, net, map[string]float64{"T": k})
		e, _ = New(net, rm)
		for _, level := range []float64{0, 0.1, 1, 12345.678, 1e12} {
			dx := e.Derive(dynamo.State{level, 0}, 0)
			if dx[0] != 0 {
				t.Errorf("rate=%v level=%v: dP = %v, want exactly 0", k, level, dx[0])
			}
		}
	}
}

func TestZeroRateIsInert(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("src", 10).
		Place("x", 0).
		Place("y", 0).
		Transition("live").
		Transition("dead").
		Arc("src", "live", 1).
		Arc("live", "x", 1).
		Arc("src", "dead", 1).
		Arc("dead", "y", 1))

	rm := mustRates(t, net, map[string]float64{"dead": 0})
	e, err := New(net, rm)
	if err != nil {
		t.Fatal(err)
	}

	dx := e.Derive(dynamo.State{10, 2, 5}, 0)
	if dx[2] != 0 {
		t.Errorf("inert transition produced dy = %v", dx[2])
	}
	if dx[0] != -10 || dx[1] != 10 {
		t.Errorf("live transition wrong: %v", dx)
	}

	f := e.Firing(dynamo.State{10, 2, 5})
	if f[1] != 0 {
		t.Errorf("inert transition fires at %v", f[1])
	}
}

func TestNegativeLevelClampsFiring(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("a", -1).
		Place("b", 0).
		Transition("t").
		Arc("a", "t", 1).
		Arc("t", "b", 1))

	dx, err := Derivative(net, mustRates(t, net, nil), net.InitialState())
	if err != nil {
		t.Fatal(err)
	}
	if dx[0] != 0 || dx[1] != 0 {
		t.Errorf("negative input should disable firing, got %v", dx)
	}
}

func TestSourceTransitionFiresAtRate(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("out", 0).
		Transition("gen").
		Arc("gen", "out", 2))

	dx, err := Derivative(net, mustRates(t, net, map[string]float64{"gen": 1.5}), net.InitialState())
	if err != nil {
		t.Fatal(err)
	}
	if dx[0] != 3 {
		t.Errorf("expected 3, got %v", dx[0])
	}
}

func TestRateMapForOtherNet(t *testing.T) {
	a := mustBuild(t, petri.NewBuilder().Place("p", 1).Transition("t").Arc("p", "t", 1))
	b := mustBuild(t, petri.NewBuilder().Place("p", 1).Transition("t").Arc("p", "t", 1))

	if _, err := New(a, mustRates(t, b, nil)); err == nil {
		t.Error("expected topology mismatch")
	}
}

func TestDeriveIntoDoesNotAllocate(t *testing.T) {
	net := mustBuild(t, petri.NewBuilder().
		Place("a", 5).
		Place("b", 0).
		Transition("t").
		Arc("a", "t", 1).
		Arc("t", "b", 1))
	e, err := New(net, mustRates(t, net, nil))
	if err != nil {
		t.Fatal(err)
	}

	x := net.InitialState()
	dx := make(dynamo.State, len(x))
	allocs := testing.AllocsPerRun(100, func() {
		e.DeriveInto(dx, x, 0)
	})
	if allocs != 0 {
		t.Errorf("DeriveInto allocated %v times", allocs)
	}
}
