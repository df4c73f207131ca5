package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Sum() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is an ODE right-hand side.
//
// Derive returns a freshly allocated derivative; it must not retain x.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// InPlaceSystem writes the derivative into a caller-owned buffer. Steppers
// prefer it when available to keep the stage loop allocation free.
type InPlaceSystem interface {
	System
	DeriveInto(dx, x State, t float64)
}

// Stepper advances a state by one step of size dt. The returned state is
// newly allocated. Step fails with ErrNonFinite when any stage derivative or
// the new state is NaN or Inf.
type Stepper interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// StepResult is the outcome of one attempted adaptive step.
type StepResult struct {
	X       State
	ErrNorm float64 // accept when <= 1
	NextDt  float64
}

// AdaptiveStepper also produces an embedded error estimate.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(sys System, x State, t, dt float64, tol Tolerance) (StepResult, error)
}

// Tolerance is the relative plus absolute error budget of an adaptive step.
type Tolerance struct {
	Rel float64
	Abs float64
}

// Span is the closed integration interval [Start, End].
type Span struct {
	Start float64
	End   float64
}

func (s Span) Length() float64 { return s.End - s.Start }

func (s Span) Validate() error {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return fmt.Errorf("%w: span bounds must be finite", ErrInvalidPolicy)
	}
	if s.End < s.Start {
		return fmt.Errorf("%w: span end %g before start %g", ErrInvalidPolicy, s.End, s.Start)
	}
	return nil
}

type StepMode int

const (
	StepFixed StepMode = iota
	StepAdaptive
)

func (m StepMode) String() string {
	switch m {
	case StepFixed:
		return "fixed"
	case StepAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("StepMode(%d)", int(m))
	}
}

// StepPolicy selects fixed or adaptive stepping. Only the fields of the
// selected mode are consulted.
type StepPolicy struct {
	Mode StepMode

	// Fixed mode.
	Dt float64

	// Adaptive mode.
	RelTol     float64
	AbsTol     float64
	DtMin      float64
	DtMax      float64
	InitialDt  float64
	MaxRejects int
}

const (
	DefaultRelTol     = 1e-6
	DefaultAbsTol     = 1e-9
	DefaultDtMin      = 1e-10
	DefaultMaxRejects = 50
)

// Fixed returns a fixed-step policy.
func Fixed(dt float64) StepPolicy {
	return StepPolicy{Mode: StepFixed, Dt: dt}
}

// Adaptive returns an adaptive policy with the remaining knobs defaulted.
func Adaptive(rtol, atol, dtMin, dtMax float64) StepPolicy {
	return StepPolicy{
		Mode:       StepAdaptive,
		RelTol:     rtol,
		AbsTol:     atol,
		DtMin:      dtMin,
		DtMax:      dtMax,
		MaxRejects: DefaultMaxRejects,
	}
}

func DefaultPolicy() StepPolicy {
	return Fixed(0.01)
}

func (p StepPolicy) Tolerance() Tolerance {
	return Tolerance{Rel: p.RelTol, Abs: p.AbsTol}
}

func (p StepPolicy) Validate() error {
	switch p.Mode {
	case StepFixed:
		if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
			return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidPolicy, p.Dt)
		}
	case StepAdaptive:
		if p.RelTol < 0 || p.AbsTol < 0 || (p.RelTol == 0 && p.AbsTol == 0) {
			return fmt.Errorf("%w: tolerances must be non-negative and not both zero", ErrInvalidPolicy)
		}
		if !(p.DtMin > 0) {
			return fmt.Errorf("%w: dt_min must be positive, got %g", ErrInvalidPolicy, p.DtMin)
		}
		if p.DtMax < p.DtMin {
			return fmt.Errorf("%w: dt_max %g below dt_min %g", ErrInvalidPolicy, p.DtMax, p.DtMin)
		}
		if p.MaxRejects < 0 {
			return fmt.Errorf("%w: max_rejects must be non-negative", ErrInvalidPolicy)
		}
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidPolicy, p.Mode)
	}
	return nil
}

// Trajectory holds parallel arrays of sample times and states in increasing
// time order.
type Trajectory struct {
	Times    []float64
	States   []State
	Accepted int
	Rejected int
}

func (t *Trajectory) Len() int { return len(t.Times) }

// Last returns the final recorded state.
func (t *Trajectory) Last() State {
	if len(t.States) == 0 {
		return nil
	}
	return t.States[len(t.States)-1]
}
