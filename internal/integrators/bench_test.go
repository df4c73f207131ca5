package integrators

import (
	"testing"

	"github.com/san-kum/petrode/internal/dynamo"
)

type benchChain struct {
	n int
}

func (b *benchChain) StateDim() int { return b.n }

func (b *benchChain) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	b.DeriveInto(dx, x, t)
	return dx
}

func (b *benchChain) DeriveInto(dx, x dynamo.State, t float64) {
	for i := range dx {
		dx[i] = 0
	}
	for i := 0; i+1 < len(x); i++ {
		f := x[i]
		dx[i] -= f
		dx[i+1] += f
	}
}

func BenchmarkDormandPrince(b *testing.B) {
	integrator := NewDormandPrince()
	dyn := &benchChain{n: 2}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkDormandPrince_Chain32(b *testing.B) {
	integrator := NewDormandPrince()
	dyn := &benchChain{n: 32}
	x := make(dynamo.State, 32)
	x[0] = 100

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(dyn, x, 0, 0.001)
	}
}

func BenchmarkDormandPrinceAdaptive_Chain32(b *testing.B) {
	integrator := NewDormandPrince()
	dyn := &benchChain{n: 32}
	x := make(dynamo.State, 32)
	x[0] = 100
	tol := dynamo.Tolerance{Rel: 1e-6, Abs: 1e-9}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _ := integrator.StepAdaptive(dyn, x, 0, 0.001, tol)
		x = res.X
	}
}
