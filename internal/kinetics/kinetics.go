// Package kinetics turns a Petri net and a rate assignment into an ODE system.
//
// Each transition fires at
//
//	rate(t) * prod over consuming arcs (level(p) / weight)
//
// with negative levels contributing a zero factor. Consuming arcs drain
// firing*weight from their place, producing arcs add it, and read-arc pairs
// are skipped entirely.
package kinetics

import (
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

// Evaluator is an immutable dynamo.System over one net and one rate map.
type Evaluator struct {
	net   *petri.Net
	rates []float64
	kin   []petri.Kinetics
}

// New binds net and rm. It fails when rm was built for another net.
func New(net *petri.Net, rm rates.RateMap) (*Evaluator, error) {
	if err := rm.Check(net); err != nil {
		return nil, err
	}
	e := &Evaluator{
		net:   net,
		rates: make([]float64, net.NumTransitions()),
		kin:   make([]petri.Kinetics, net.NumTransitions()),
	}
	for i := range e.rates {
		e.rates[i] = rm.At(i)
		e.kin[i] = net.KineticsOf(i)
	}
	return e, nil
}

func (e *Evaluator) Net() *petri.Net { return e.net }

func (e *Evaluator) StateDim() int { return e.net.NumPlaces() }

// Derive implements dynamo.System. The net is autonomous so t is unused.
func (e *Evaluator) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	e.DeriveInto(dx, x, t)
	return dx
}

// DeriveInto writes the derivative of x into dx without allocating. It
// implements dynamo.InPlaceSystem.
func (e *Evaluator) DeriveInto(dx, x dynamo.State, t float64) {
	for i := range dx {
		dx[i] = 0
	}
	for t, k := range e.kin {
		f := e.firing(t, x)
		if f == 0 {
			continue
		}
		for _, eff := range k.Effects {
			dx[eff.Place] += f * eff.Weight
		}
	}
}

// Firing returns the instantaneous firing rate of every transition at x.
func (e *Evaluator) Firing(x dynamo.State) []float64 {
	out := make([]float64, len(e.kin))
	for t := range e.kin {
		out[t] = e.firing(t, x)
	}
	return out
}

func (e *Evaluator) firing(t int, x dynamo.State) float64 {
	f := e.rates[t]
	if f == 0 {
		return 0
	}
	for _, in := range e.kin[t].Inputs {
		level := x[in.Place]
		if level <= 0 {
			return 0
		}
		f *= level / in.Weight
	}
	return f
}

// Derivative evaluates net under rm at state x in one call.
func Derivative(net *petri.Net, rm rates.RateMap, x dynamo.State) (dynamo.State, error) {
	e, err := New(net, rm)
	if err != nil {
		return nil, err
	}
	if len(x) != net.NumPlaces() {
		return nil, dynamo.ErrDimensionMismatch
	}
	return e.Derive(x, 0), nil
}
