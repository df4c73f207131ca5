package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/petrode/internal/engine"
)

var ErrUnknownPlace = errors.New("analysis: unknown place")

func placeIndex(sol *engine.Solution, id string) (int, error) {
	i, ok := sol.Net().PlaceIndex(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlace, id)
	}
	return i, nil
}

// ExtractSeries returns the level of place id at every sample, in time order.
// The result is a fresh slice.
func ExtractSeries(sol *engine.Solution, id string) ([]float64, error) {
	i, err := placeIndex(sol, id)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(sol.States))
	for k, x := range sol.States {
		out[k] = x[i]
	}
	return out, nil
}

// TerminalValue returns the level of place id at the last sample.
func TerminalValue(sol *engine.Solution, id string) (float64, error) {
	i, err := placeIndex(sol, id)
	if err != nil {
		return 0, err
	}
	final := sol.Final()
	if final == nil {
		return 0, fmt.Errorf("analysis: empty solution")
	}
	return final[i], nil
}

// ConservationDrift is the largest |Σ levels(t) − Σ levels(t0)| over the
// samples, summing only the named places, or every place when none are named.
func ConservationDrift(sol *engine.Solution, ids ...string) (float64, error) {
	var idx []int
	for _, id := range ids {
		i, err := placeIndex(sol, id)
		if err != nil {
			return 0, err
		}
		idx = append(idx, i)
	}

	sum := func(x []float64) float64 {
		if idx == nil {
			var s float64
			for _, v := range x {
				s += v
			}
			return s
		}
		var s float64
		for _, i := range idx {
			s += x[i]
		}
		return s
	}

	if len(sol.States) == 0 {
		return 0, nil
	}
	start := sum(sol.States[0])
	var drift float64
	for _, x := range sol.States[1:] {
		drift = math.Max(drift, math.Abs(sum(x)-start))
	}
	return drift, nil
}
