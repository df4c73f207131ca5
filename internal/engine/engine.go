// Package engine solves a Petri net's continuous relaxation: it wires a net
// and a rate assignment into the kinetics evaluator and runs the
// Dormand-Prince solver over a time span.
//
//	net, _ := petri.NewBuilder().
//		Place("full", 15).Place("s1", 0).
//		Transition("t1").
//		Arc("full", "t1", 1).Arc("t1", "s1", 1).
//		Build()
//	rm, _ := rates.For(net, rates.Uniform{})
//	sol, err := engine.Solve(ctx, net, rm, nil, dynamo.Span{End: 10}, dynamo.Fixed(0.05))
//
// An Engine holds only a stepper pool and observers, so one value may serve
// any number of concurrent solves.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/integrators"
	"github.com/san-kum/petrode/internal/kinetics"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
	"github.com/san-kum/petrode/internal/sim"
)

const tracerName = "github.com/san-kum/petrode/internal/engine"

var ErrNilNet = errors.New("engine: nil net")

type Engine struct {
	solver *sim.Solver
}

func New() *Engine {
	return &Engine{
		solver: sim.New(func() dynamo.AdaptiveStepper { return integrators.NewDormandPrince() }),
	}
}

// AddObserver attaches o to every subsequent solve. Call it before sharing
// the engine.
func (e *Engine) AddObserver(o sim.Observer) { e.solver.AddObserver(o) }

// Solve integrates net under rm from x0 over span. A nil x0 starts from the
// net's declared initial levels.
func (e *Engine) Solve(ctx context.Context, net *petri.Net, rm rates.RateMap, x0 dynamo.State, span dynamo.Span, policy dynamo.StepPolicy) (*Solution, error) {
	if net == nil {
		return nil, ErrNilNet
	}
	ctx, spanT := otel.Tracer(tracerName).Start(ctx, "engine.Solve")
	defer spanT.End()
	spanT.SetAttributes(
		attribute.Int("petri.places", net.NumPlaces()),
		attribute.Int("petri.transitions", net.NumTransitions()),
		attribute.String("solver.mode", policy.Mode.String()),
	)

	eval, err := kinetics.New(net, rm)
	if err != nil {
		spanT.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if x0 == nil {
		x0 = net.InitialState()
	} else if len(x0) != net.NumPlaces() {
		err := fmt.Errorf("%w: state has %d entries, net has %d places", dynamo.ErrDimensionMismatch, len(x0), net.NumPlaces())
		spanT.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	traj, err := e.solver.Run(ctx, eval, x0, span, policy)
	if err != nil {
		spanT.RecordError(err)
		spanT.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	spanT.SetAttributes(
		attribute.Int("solver.accepted", traj.Accepted),
		attribute.Int("solver.rejected", traj.Rejected),
	)
	return newSolution(net, traj), nil
}

// Solve runs a single solve on a fresh Engine.
func Solve(ctx context.Context, net *petri.Net, rm rates.RateMap, x0 dynamo.State, span dynamo.Span, policy dynamo.StepPolicy) (*Solution, error) {
	return New().Solve(ctx, net, rm, x0, span, policy)
}
