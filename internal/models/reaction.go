package models

import (
	"fmt"

	"github.com/san-kum/petrode/internal/petri"
)

// Chain builds a pure transfer chain A0 -> A1 -> ... -> A(n-1) with all of
// initial in A0. Every transition moves one unit, so the total is conserved.
func Chain(n int, initial float64) (*petri.Net, error) {
	if n < 2 {
		return nil, fmt.Errorf("models: chain needs at least 2 places, got %d", n)
	}
	b := petri.NewBuilder()
	for i := 0; i < n; i++ {
		level := 0.0
		if i == 0 {
			level = initial
		}
		b.Place(fmt.Sprintf("A%d", i), level)
	}
	for i := 0; i+1 < n; i++ {
		t := fmt.Sprintf("T%d", i)
		b.Transition(t).
			Arc(fmt.Sprintf("A%d", i), t, 1).
			Arc(t, fmt.Sprintf("A%d", i+1), 1)
	}
	return b.Build()
}

// Competition builds one source place feeding n transitions, each draining
// into its own sink S0..S(n-1).
func Competition(n int, source float64) (*petri.Net, error) {
	if n < 1 {
		return nil, fmt.Errorf("models: competition needs at least 1 sink, got %d", n)
	}
	b := petri.NewBuilder().Place("source", source)
	for i := 0; i < n; i++ {
		s, t := fmt.Sprintf("S%d", i), fmt.Sprintf("T%d", i)
		b.Place(s, 0).Transition(t).Arc("source", t, 1).Arc(t, s, 1)
	}
	return b.Build()
}

// Catalysis builds substrate -> product driven by an enzyme on a read arc.
func Catalysis(substrate, enzyme float64) (*petri.Net, error) {
	return petri.NewBuilder().
		Place("substrate", substrate).
		Place("enzyme", enzyme).
		Place("product", 0).
		Transition("convert").
		Arc("substrate", "convert", 1).
		ReadArc("enzyme", "convert", 1).
		Arc("convert", "product", 1).
		Build()
}
