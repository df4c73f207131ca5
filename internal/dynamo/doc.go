// Package dynamo provides core primitives for integrating ordinary
// differential equations.
//
// The package defines the vocabulary shared by the integrator, the step loop
// and the Petri-net kinetics:
//
//   - [State]: vector of continuous levels
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Stepper]: single-step numerical integrator
//   - [StepPolicy]: fixed or adaptive stepping configuration
//   - [Trajectory]: recorded (time, state) samples
//
// # Example
//
//	sys := kinetics.New(net, rateMap)
//	solver := sim.New(integrators.NewDormandPrince())
//	traj, err := solver.Run(ctx, sys, net.InitialState(), dynamo.Span{Start: 0, End: 10}, dynamo.Fixed(0.05))
//
// # Thread Safety
//
// States stored in a Trajectory are never mutated after being recorded, so a
// Trajectory may be read from any number of goroutines.
package dynamo
