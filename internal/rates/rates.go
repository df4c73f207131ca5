// Package rates assigns rate constants to the transitions of a net.
//
// A RateMap is a total, immutable mapping from transition to a non-negative
// constant. Policies build a fresh RateMap per simulation run and never touch
// the net, so one topology can be shared by many concurrently evaluated runs.
package rates

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/petrode/internal/petri"
)

var (
	ErrInvalidRate       = errors.New("rates: rate constant must be finite and non-negative")
	ErrUnknownTransition = errors.New("rates: unknown transition")
	ErrTopologyMismatch  = errors.New("rates: rate map built for a different net")
)

// RateMap holds one constant per transition, indexed like the net.
type RateMap struct {
	net   *petri.Net
	rates []float64
}

// New builds a RateMap from a per-transition function. Every value is
// validated before any state exists.
func New(net *petri.Net, fn func(id string) float64) (RateMap, error) {
	rates := make([]float64, net.NumTransitions())
	for i := range rates {
		id := net.Transition(i).ID
		k := fn(id)
		if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
			return RateMap{}, fmt.Errorf("%w: %s=%g", ErrInvalidRate, id, k)
		}
		rates[i] = k
	}
	return RateMap{net: net, rates: rates}, nil
}

// FromMap builds a RateMap from explicit constants. Transitions missing from
// m get def.
func FromMap(net *petri.Net, m map[string]float64, def float64) (RateMap, error) {
	for id := range m {
		if _, ok := net.TransitionIndex(id); !ok {
			return RateMap{}, fmt.Errorf("%w: %s", ErrUnknownTransition, id)
		}
	}
	return New(net, func(id string) float64 {
		if k, ok := m[id]; ok {
			return k
		}
		return def
	})
}

// Override returns a copy of base with the named constants replaced.
func Override(base RateMap, m map[string]float64) (RateMap, error) {
	if base.net == nil {
		return RateMap{}, ErrTopologyMismatch
	}
	for id := range m {
		if _, ok := base.net.TransitionIndex(id); !ok {
			return RateMap{}, fmt.Errorf("%w: %s", ErrUnknownTransition, id)
		}
	}
	return New(base.net, func(id string) float64 {
		if k, ok := m[id]; ok {
			return k
		}
		k, _ := base.Rate(id)
		return k
	})
}

func (r RateMap) Net() *petri.Net { return r.net }

func (r RateMap) Len() int { return len(r.rates) }

// At returns the constant of transition index i.
func (r RateMap) At(i int) float64 { return r.rates[i] }

// Rate returns the constant of the named transition.
func (r RateMap) Rate(id string) (float64, bool) {
	if r.net == nil {
		return 0, false
	}
	i, ok := r.net.TransitionIndex(id)
	if !ok {
		return 0, false
	}
	return r.rates[i], true
}

// Map returns a transition-id keyed copy.
func (r RateMap) Map() map[string]float64 {
	m := make(map[string]float64, len(r.rates))
	for i, k := range r.rates {
		m[r.net.Transition(i).ID] = k
	}
	return m
}

// Check reports whether r was built for net.
func (r RateMap) Check(net *petri.Net) error {
	if r.net != net || len(r.rates) != net.NumTransitions() {
		return ErrTopologyMismatch
	}
	return nil
}
