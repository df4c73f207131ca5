package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
	"github.com/san-kum/petrode/internal/sim"
)

var ErrBadAxis = errors.New("optim: invalid sweep axis")

// Axis is the set of rate constants tried for one transition.
type Axis struct {
	Transition string
	Values     []float64
}

// ParseAxis reads "t=0.5,1,2" (explicit values) or "t=lo:hi:n" (n evenly
// spaced values, inclusive).
func ParseAxis(s string) (Axis, error) {
	id, values, ok := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" || values == "" {
		return Axis{}, fmt.Errorf("%w: %q", ErrBadAxis, s)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil || n < 1 || hi < lo {
			return Axis{}, fmt.Errorf("%w: %q", ErrBadAxis, s)
		}
		return Axis{Transition: id, Values: Linspace(lo, hi, n)}, nil
	}

	var vals []float64
	for _, f := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("%w: %q: %v", ErrBadAxis, s, err)
		}
		vals = append(vals, v)
	}
	return Axis{Transition: id, Values: vals}, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Point is one grid point: a rate override per swept transition.
type Point map[string]float64

type Result struct {
	Rates Point
	Score float64
}

// Objective scores a solved grid point; higher is better.
type Objective func(sol *engine.Solution) (float64, error)

// Terminal scores a point by the final level of place.
func Terminal(place string) Objective {
	return func(sol *engine.Solution) (float64, error) {
		return analysis.TerminalValue(sol, place)
	}
}

type SearchOptions struct {
	Span dynamo.Span
	Step dynamo.StepPolicy
	// X0 is the initial state; nil means the net's initial marking.
	X0 dynamo.State
	// Workers bounds parallel solves; <= 0 means GOMAXPROCS.
	Workers int
	Engine  *engine.Engine
}

// GridSearch sweeps rate constants over the cartesian product of its axes.
type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) (*GridSearch, error) {
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if a.Transition == "" || len(a.Values) == 0 || seen[a.Transition] {
			return nil, fmt.Errorf("%w: %q", ErrBadAxis, a.Transition)
		}
		for _, v := range a.Values {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %s=%v", rates.ErrInvalidRate, a.Transition, v)
			}
		}
		seen[a.Transition] = true
	}
	return &GridSearch{axes: axes}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates the grid with the last axis varying fastest.
func (g *GridSearch) Points() []Point {
	var out []Point
	if len(g.axes) == 0 {
		return out
	}
	g.pointsRecursive(0, Point{}, &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current Point, out *[]Point) {
	if depth == len(g.axes) {
		p := make(Point, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	a := g.axes[depth]
	for _, v := range a.Values {
		current[a.Transition] = v
		g.pointsRecursive(depth+1, current, out)
	}
	delete(current, a.Transition)
}

// Search solves net once per grid point, with base overridden by the point's
// rates, and returns every result best first. Ties keep grid order.
func (g *GridSearch) Search(ctx context.Context, net *petri.Net, base rates.RateMap, objective Objective, opts SearchOptions) ([]Result, error) {
	for _, a := range g.axes {
		if _, ok := net.TransitionIndex(a.Transition); !ok {
			return nil, fmt.Errorf("%w: %s", rates.ErrUnknownTransition, a.Transition)
		}
	}
	eng := opts.Engine
	if eng == nil {
		eng = engine.New()
	}

	points := g.Points()
	results := make([]Result, len(points))
	err := sim.Map(ctx, len(points), opts.Workers, func(ctx context.Context, i int) error {
		rm, err := rates.Override(base, points[i])
		if err != nil {
			return err
		}
		sol, err := eng.Solve(ctx, net, rm, opts.X0, opts.Span, opts.Step)
		if err != nil {
			return fmt.Errorf("point %v: %w", points[i], err)
		}
		score, err := objective(sol)
		if err != nil {
			return err
		}
		results[i] = Result{Rates: points[i], Score: score}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}
