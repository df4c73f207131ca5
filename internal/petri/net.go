package petri

import (
	"errors"
	"math"
	"sort"

	"github.com/san-kum/petrode/internal/dynamo"
)

// Place is a named continuous quantity. Label is display metadata only.
type Place struct {
	ID      string
	Initial float64
	Label   string
}

// Transition is a named reaction. Its rate constant lives in a rates.RateMap.
type Transition struct {
	ID    string
	Label string
}

// Arc is a directed edge between a place and a transition.
type Arc struct {
	Source string
	Target string
	Weight int
}

// Term is a pre-resolved (place index, coefficient) pair.
type Term struct {
	Place  int
	Weight float64
}

// Kinetics is the per-transition view used in the integration hot loop.
//
// Inputs drive the firing rate (every consuming arc, read arcs included).
// Effects are the net stoichiometric changes; read-arc places never appear.
type Kinetics struct {
	Inputs  []Term
	Effects []Term
}

// Net is an immutable, validated Petri net.
type Net struct {
	places      []Place
	transitions []Transition
	arcs        []Arc
	placeIdx    map[string]int
	transIdx    map[string]int
	consumes    [][]Term
	produces    [][]Term
	kinetics    []Kinetics
	readArcs    [][]int
}

func (n *Net) NumPlaces() int      { return len(n.places) }
func (n *Net) NumTransitions() int { return len(n.transitions) }

func (n *Net) Place(i int) Place           { return n.places[i] }
func (n *Net) Transition(i int) Transition { return n.transitions[i] }

// Places returns a copy of the places in index order.
func (n *Net) Places() []Place {
	out := make([]Place, len(n.places))
	copy(out, n.places)
	return out
}

// Transitions returns a copy of the transitions in index order.
func (n *Net) Transitions() []Transition {
	out := make([]Transition, len(n.transitions))
	copy(out, n.transitions)
	return out
}

// Arcs returns a copy of the arcs in declaration order.
func (n *Net) Arcs() []Arc {
	out := make([]Arc, len(n.arcs))
	copy(out, n.arcs)
	return out
}

func (n *Net) PlaceIDs() []string {
	ids := make([]string, len(n.places))
	for i, p := range n.places {
		ids[i] = p.ID
	}
	return ids
}

func (n *Net) TransitionIDs() []string {
	ids := make([]string, len(n.transitions))
	for i, t := range n.transitions {
		ids[i] = t.ID
	}
	return ids
}

func (n *Net) PlaceIndex(id string) (int, bool) {
	i, ok := n.placeIdx[id]
	return i, ok
}

func (n *Net) TransitionIndex(id string) (int, bool) {
	i, ok := n.transIdx[id]
	return i, ok
}

// Consumes lists the (place, weight) consuming arcs of transition t.
func (n *Net) Consumes(t int) []Term { return n.consumes[t] }

// Produces lists the (place, weight) producing arcs of transition t.
func (n *Net) Produces(t int) []Term { return n.produces[t] }

// ReadPlaces lists the places joined to transition t by a read arc.
func (n *Net) ReadPlaces(t int) []int { return n.readArcs[t] }

// KineticsOf returns the hot-loop view of transition t. Callers must not
// modify the returned slices.
func (n *Net) KineticsOf(t int) Kinetics { return n.kinetics[t] }

// InitialState returns a fresh state vector of the declared initial levels.
func (n *Net) InitialState() dynamo.State {
	x := make(dynamo.State, len(n.places))
	for i, p := range n.places {
		x[i] = p.Initial
	}
	return x
}

// StateMap converts a state vector into a place-id keyed map.
func (n *Net) StateMap(x dynamo.State) map[string]float64 {
	m := make(map[string]float64, len(n.places))
	for i, p := range n.places {
		if i < len(x) {
			m[p.ID] = x[i]
		}
	}
	return m
}

// Build validates places, transitions and arcs and returns an indexed Net.
// Every defect found is reported; the returned error joins *ModelError values.
func Build(places []Place, transitions []Transition, arcs []Arc) (*Net, error) {
	n := &Net{
		places:      append([]Place(nil), places...),
		transitions: append([]Transition(nil), transitions...),
		arcs:        append([]Arc(nil), arcs...),
		placeIdx:    make(map[string]int, len(places)),
		transIdx:    make(map[string]int, len(transitions)),
	}

	var errs []error
	for i, p := range n.places {
		if _, dup := n.placeIdx[p.ID]; dup || p.ID == "" {
			errs = append(errs, modelErr(ErrDuplicateID, p.ID, "place"))
			continue
		}
		if math.IsNaN(p.Initial) || math.IsInf(p.Initial, 0) {
			errs = append(errs, modelErr(ErrInvalidLevel, p.ID, "initial %g", p.Initial))
		}
		n.placeIdx[p.ID] = i
	}
	for i, t := range n.transitions {
		_, dupT := n.transIdx[t.ID]
		_, dupP := n.placeIdx[t.ID]
		if dupT || dupP || t.ID == "" {
			errs = append(errs, modelErr(ErrDuplicateID, t.ID, "transition"))
			continue
		}
		n.transIdx[t.ID] = i
	}

	nt := len(n.transitions)
	n.consumes = make([][]Term, nt)
	n.produces = make([][]Term, nt)
	seen := make(map[[2]string]bool, len(arcs))

	for _, a := range n.arcs {
		ref := a.Source + "->" + a.Target
		if a.Weight <= 0 {
			errs = append(errs, modelErr(ErrInvalidArcWeight, ref, "weight %d", a.Weight))
			continue
		}
		sp, srcIsPlace := n.placeIdx[a.Source]
		st, srcIsTrans := n.transIdx[a.Source]
		tp, dstIsPlace := n.placeIdx[a.Target]
		tt, dstIsTrans := n.transIdx[a.Target]

		if !srcIsPlace && !srcIsTrans {
			errs = append(errs, modelErr(ErrUnknownReference, a.Source, "arc source"))
			continue
		}
		if !dstIsPlace && !dstIsTrans {
			errs = append(errs, modelErr(ErrUnknownReference, a.Target, "arc target"))
			continue
		}
		if srcIsPlace == dstIsPlace {
			errs = append(errs, modelErr(ErrInvalidEndpoints, ref, "place-place or transition-transition"))
			continue
		}
		key := [2]string{a.Source, a.Target}
		if seen[key] {
			errs = append(errs, modelErr(ErrDuplicateArc, ref, ""))
			continue
		}
		seen[key] = true

		w := float64(a.Weight)
		if srcIsPlace {
			n.consumes[tt] = append(n.consumes[tt], Term{Place: sp, Weight: w})
		} else {
			n.produces[st] = append(n.produces[st], Term{Place: tp, Weight: w})
		}
	}

	for i, t := range n.transitions {
		if n.transIdx[t.ID] != i {
			continue
		}
		if len(n.consumes[i]) == 0 && len(n.produces[i]) == 0 {
			errs = append(errs, modelErr(ErrIsolatedTransition, t.ID, ""))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := n.resolveKinetics(); err != nil {
		return nil, err
	}
	return n, nil
}

// resolveKinetics pairs opposing arcs into read arcs and folds the remaining
// arcs into signed effects.
func (n *Net) resolveKinetics() error {
	var errs []error
	n.kinetics = make([]Kinetics, len(n.transitions))
	n.readArcs = make([][]int, len(n.transitions))

	for t := range n.transitions {
		out := make(map[int]float64, len(n.produces[t]))
		for _, p := range n.produces[t] {
			out[p.Place] = p.Weight
		}
		read := make(map[int]bool)
		for _, c := range n.consumes[t] {
			w, ok := out[c.Place]
			if !ok {
				continue
			}
			if w != c.Weight {
				errs = append(errs, modelErr(ErrAsymmetricReadArc, n.places[c.Place].ID,
					"transition %s consumes %g, produces %g", n.transitions[t].ID, c.Weight, w))
				continue
			}
			read[c.Place] = true
		}

		k := Kinetics{Inputs: append([]Term(nil), n.consumes[t]...)}
		for _, c := range n.consumes[t] {
			if !read[c.Place] {
				k.Effects = append(k.Effects, Term{Place: c.Place, Weight: -c.Weight})
			}
		}
		for _, p := range n.produces[t] {
			if !read[p.Place] {
				k.Effects = append(k.Effects, Term{Place: p.Place, Weight: p.Weight})
			}
		}
		n.kinetics[t] = k

		for p := range read {
			n.readArcs[t] = append(n.readArcs[t], p)
		}
		sort.Ints(n.readArcs[t])
	}
	return errors.Join(errs...)
}
