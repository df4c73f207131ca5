package rates

import (
	"fmt"
	"strings"

	"github.com/san-kum/petrode/internal/petri"
)

// Selection is a set of transition ids.
type Selection map[string]struct{}

func Select(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// WeightFunc supplies a positive weight per transition id. ok=false means
// "unspecified".
type WeightFunc func(id string) (w float64, ok bool)

// Weights adapts a map into a WeightFunc.
func Weights(m map[string]float64) WeightFunc {
	return func(id string) (float64, bool) {
		w, ok := m[id]
		return w, ok
	}
}

// Policy turns a net into a rate assignment.
type Policy interface {
	Name() string
	Rates(net *petri.Net) (RateMap, error)
}

// For applies policy to net.
func For(net *petri.Net, policy Policy) (RateMap, error) {
	return policy.Rates(net)
}

// Uniform gives every transition rate 1.
type Uniform struct{}

func (Uniform) Name() string { return "uniform" }

func (Uniform) Rates(net *petri.Net) (RateMap, error) {
	return New(net, func(string) float64 { return 1 })
}

// SelectionMasked gives selected transitions rate 1 and all others 0. An
// empty selection behaves as Uniform.
type SelectionMasked struct {
	Selected Selection
}

func (SelectionMasked) Name() string { return "selection" }

func (p SelectionMasked) Rates(net *petri.Net) (RateMap, error) {
	if len(p.Selected) == 0 {
		return Uniform{}.Rates(net)
	}
	return New(net, func(id string) float64 {
		if p.Selected.Has(id) {
			return 1
		}
		return 0
	})
}

// WeightedExclusion gives selected (already taken) transitions rate 0 and the
// rest their weight, defaulting to 1 when Weight is nil or unspecified.
// Weights of non-excluded transitions must be positive.
type WeightedExclusion struct {
	Excluded Selection
	Weight   WeightFunc
}

func (WeightedExclusion) Name() string { return "exclusion" }

func (p WeightedExclusion) Rates(net *petri.Net) (RateMap, error) {
	if p.Weight != nil {
		for i := 0; i < net.NumTransitions(); i++ {
			id := net.Transition(i).ID
			if p.Excluded.Has(id) {
				continue
			}
			if w, ok := p.Weight(id); ok && w == 0 {
				return RateMap{}, fmt.Errorf("%w: weight for %s must be positive", ErrInvalidRate, id)
			}
		}
	}
	return New(net, func(id string) float64 {
		if p.Excluded.Has(id) {
			return 0
		}
		if p.Weight != nil {
			if w, ok := p.Weight(id); ok {
				return w
			}
		}
		return 1
	})
}

// ParsePolicy builds a named policy from a selection and optional weights.
func ParsePolicy(name string, selection []string, weights map[string]float64) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "uniform":
		return Uniform{}, nil
	case "selection", "masked":
		return SelectionMasked{Selected: Select(selection...)}, nil
	case "exclusion", "weighted":
		p := WeightedExclusion{Excluded: Select(selection...)}
		if len(weights) > 0 {
			p.Weight = Weights(weights)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown rate policy: %s", name)
	}
}
