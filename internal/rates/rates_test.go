package rates

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/petrode/internal/petri"
)

func threeWayNet(t *testing.T) *petri.Net {
	t.Helper()
	b := petri.NewBuilder().Place("src", 10)
	for _, id := range []string{"a", "b", "c"} {
		b.Place("sink_"+id, 0).Transition(id).Arc("src", id, 1).Arc(id, "sink_"+id, 1)
	}
	net, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return net
}

func TestPolicies(t *testing.T) {
	net := threeWayNet(t)

	tests := []struct {
		name   string
		policy Policy
		want   map[string]float64
	}{
		{"uniform", Uniform{}, map[string]float64{"a": 1, "b": 1, "c": 1}},
		{"masked", SelectionMasked{Selected: Select("b")}, map[string]float64{"a": 0, "b": 1, "c": 0}},
		{"masked empty falls back to uniform", SelectionMasked{}, map[string]float64{"a": 1, "b": 1, "c": 1}},
		{"exclusion default weight", WeightedExclusion{Excluded: Select("a")}, map[string]float64{"a": 0, "b": 1, "c": 1}},
		{
			"exclusion with weights",
			WeightedExclusion{Excluded: Select("a"), Weight: Weights(map[string]float64{"a": 9, "b": 2.5})},
			map[string]float64{"a": 0, "b": 2.5, "c": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm, err := For(net, tt.policy)
			if err != nil {
				t.Fatalf("policy failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, rm.Map()); diff != "" {
				t.Errorf("rates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPoliciesDoNotMutateNet(t *testing.T) {
	net := threeWayNet(t)
	before := net.InitialState()

	if _, err := For(net, SelectionMasked{Selected: Select("a")}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, net.InitialState()); diff != "" {
		t.Errorf("net changed (-want +got):\n%s", diff)
	}
}

func TestInvalidRates(t *testing.T) {
	net := threeWayNet(t)

	for _, k := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := FromMap(net, map[string]float64{"a": k}, 1)
		if !errors.Is(err, ErrInvalidRate) {
			t.Errorf("rate %v: expected ErrInvalidRate, got %v", k, err)
		}
	}

	negative := WeightedExclusion{Weight: Weights(map[string]float64{"c": -0.5})}
	if _, err := negative.Rates(net); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate from negative weight, got %v", err)
	}

	zero := WeightedExclusion{Weight: Weights(map[string]float64{"b": 0})}
	if _, err := zero.Rates(net); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate from zero weight, got %v", err)
	}

	excludedZero := WeightedExclusion{Excluded: Select("b"), Weight: Weights(map[string]float64{"b": 0})}
	if _, err := excludedZero.Rates(net); err != nil {
		t.Errorf("zero weight on an excluded transition should be ignored, got %v", err)
	}
}

func TestFromMapUnknownTransition(t *testing.T) {
	net := threeWayNet(t)
	if _, err := FromMap(net, map[string]float64{"zzz": 1}, 1); !errors.Is(err, ErrUnknownTransition) {
		t.Errorf("expected ErrUnknownTransition, got %v", err)
	}
}

func TestOverride(t *testing.T) {
	net := threeWayNet(t)
	base, err := For(net, Uniform{})
	if err != nil {
		t.Fatal(err)
	}

	next, err := Override(base, map[string]float64{"b": 0})
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}

	if k, _ := base.Rate("b"); k != 1 {
		t.Errorf("base mutated: b=%v", k)
	}
	want := map[string]float64{"a": 1, "b": 0, "c": 1}
	if diff := cmp.Diff(want, next.Map()); diff != "" {
		t.Errorf("override mismatch (-want +got):\n%s", diff)
	}
	if err := next.Check(net); err != nil {
		t.Errorf("override lost topology: %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "uniform"},
		{"uniform", "uniform"},
		{"selection", "selection"},
		{"exclusion", "exclusion"},
	}
	for _, tt := range tests {
		p, err := ParsePolicy(tt.name, nil, nil)
		if err != nil {
			t.Fatalf("ParsePolicy(%q): %v", tt.name, err)
		}
		if p.Name() != tt.want {
			t.Errorf("ParsePolicy(%q) = %s, want %s", tt.name, p.Name(), tt.want)
		}
	}

	if _, err := ParsePolicy("chaos", nil, nil); err == nil {
		t.Error("expected error for unknown policy")
	}
}
