package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/petrode/internal/dynamo"
)

// Observer is notified of every accepted sample, including the initial one.
// Observers attached to a Solver are shared by concurrent runs and must be
// safe for concurrent use.
type Observer interface {
	OnStep(x dynamo.State, t float64)
}

// RejectObserver is notified of rejected adaptive steps.
type RejectObserver interface {
	OnReject(t, dt, errNorm float64)
}

// FinishObserver is notified once per run with its outcome.
type FinishObserver interface {
	OnFinish(stats Stats, err error)
}

// Stats summarises one run.
type Stats struct {
	Mode     dynamo.StepMode
	Accepted int
	Rejected int
	Dim      int
	Elapsed  time.Duration
}

// Solver drives a stepper over a span. It holds no per-run state, so one
// Solver may serve many goroutines; each run borrows its own stepper.
type Solver struct {
	steppers  *StepperPool
	observers []Observer
}

func New(newStepper func() dynamo.AdaptiveStepper) *Solver {
	return &Solver{steppers: NewStepperPool(newStepper)}
}

// AddObserver must be called before the solver is shared.
func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates sys from x0 over span. It returns either a complete
// trajectory whose first sample is (span.Start, x0) or an error; never both.
// Failures are *dynamo.SimulationError wrapping ErrNonFinite,
// ErrStepTooSmall or ErrCanceled.
func (s *Solver) Run(ctx context.Context, sys dynamo.System, x0 dynamo.State, span dynamo.Span, policy dynamo.StepPolicy) (*dynamo.Trajectory, error) {
	if err := s.validate(sys, x0, span, policy); err != nil {
		return nil, err
	}

	start := time.Now()
	stepper := s.steppers.Get()
	defer s.steppers.Put(stepper)

	var traj *dynamo.Trajectory
	var err error
	if policy.Mode == dynamo.StepAdaptive {
		traj, err = s.runAdaptive(ctx, stepper, sys, x0, span, policy)
	} else {
		traj, err = s.runFixed(ctx, stepper, sys, x0, span, policy.Dt)
	}

	stats := Stats{Mode: policy.Mode, Dim: len(x0), Elapsed: time.Since(start)}
	if traj != nil {
		stats.Accepted = traj.Accepted
		stats.Rejected = traj.Rejected
	}
	for _, o := range s.observers {
		if fo, ok := o.(FinishObserver); ok {
			fo.OnFinish(stats, err)
		}
	}
	if err != nil {
		return nil, err
	}
	return traj, nil
}

func (s *Solver) validate(sys dynamo.System, x0 dynamo.State, span dynamo.Span, policy dynamo.StepPolicy) error {
	if err := span.Validate(); err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	if len(x0) != sys.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system %d", dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	if !x0.IsValid() {
		return &dynamo.SimulationError{Step: 0, Time: span.Start, Wrapped: dynamo.ErrNonFinite}
	}
	return nil
}

func (s *Solver) newTrajectory(capacity int, x0 dynamo.State, t0 float64) *dynamo.Trajectory {
	traj := &dynamo.Trajectory{
		Times:  make([]float64, 0, capacity),
		States: make([]dynamo.State, 0, capacity),
	}
	s.record(traj, x0.Clone(), t0)
	return traj
}

func (s *Solver) record(traj *dynamo.Trajectory, x dynamo.State, t float64) {
	traj.Times = append(traj.Times, t)
	traj.States = append(traj.States, x)
	for _, o := range s.observers {
		o.OnStep(x, t)
	}
}

func canceled(ctx context.Context, step int, t float64) error {
	select {
	case <-ctx.Done():
		return &dynamo.SimulationError{Step: step, Time: t, Wrapped: fmt.Errorf("%w: %w", dynamo.ErrCanceled, ctx.Err())}
	default:
		return nil
	}
}

// FixedStepCount is the number of steps a fixed-step run over length takes:
// ceil(length/dt), with a relative slack of 1e-9 on the ratio so that
// representation error in dt does not add a sliver step.
func FixedStepCount(length, dt float64) int {
	if length <= 0 {
		return 0
	}
	ratio := length / dt
	n := int(math.Ceil(ratio * (1 - 1e-9)))
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Solver) runFixed(ctx context.Context, stepper dynamo.Stepper, sys dynamo.System, x0 dynamo.State, span dynamo.Span, dt float64) (*dynamo.Trajectory, error) {
	steps := FixedStepCount(span.Length(), dt)
	traj := s.newTrajectory(steps+1, x0, span.Start)

	x := traj.States[0]
	t := span.Start
	for i := 0; i < steps; i++ {
		if err := canceled(ctx, i, t); err != nil {
			return nil, err
		}

		next := span.Start + float64(i+1)*dt
		if i == steps-1 {
			next = span.End
		}

		newX, err := stepper.Step(sys, x, t, next-t)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: i, Time: t, Wrapped: err}
		}

		x = newX
		t = next
		traj.Accepted++
		s.record(traj, x, t)
	}
	return traj, nil
}

func initialDt(span dynamo.Span, policy dynamo.StepPolicy) float64 {
	dt := policy.InitialDt
	if dt <= 0 {
		dt = span.Length() / 100
	}
	return math.Max(policy.DtMin, math.Min(dt, policy.DtMax))
}

func (s *Solver) runAdaptive(ctx context.Context, stepper dynamo.AdaptiveStepper, sys dynamo.System, x0 dynamo.State, span dynamo.Span, policy dynamo.StepPolicy) (*dynamo.Trajectory, error) {
	traj := s.newTrajectory(64, x0, span.Start)
	if span.Length() == 0 {
		return traj, nil
	}

	maxRejects := policy.MaxRejects
	if maxRejects == 0 {
		maxRejects = dynamo.DefaultMaxRejects
	}
	tol := policy.Tolerance()

	x := traj.States[0]
	t := span.Start
	dt := initialDt(span, policy)
	rejects := 0
	step := 0

	for t < span.End {
		if err := canceled(ctx, step, t); err != nil {
			return nil, err
		}

		h := dt
		last := false
		if remaining := span.End - t; h >= remaining {
			h = remaining
			last = true
		}

		res, err := stepper.StepAdaptive(sys, x, t, h, tol)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: step, Time: t, Wrapped: err}
		}

		if res.ErrNorm > 1 {
			traj.Rejected++
			rejects++
			for _, o := range s.observers {
				if ro, ok := o.(RejectObserver); ok {
					ro.OnReject(t, h, res.ErrNorm)
				}
			}
			dt = res.NextDt
			if dt < policy.DtMin || rejects > maxRejects {
				return nil, &dynamo.SimulationError{Step: step, Time: t, Wrapped: dynamo.ErrStepTooSmall}
			}
			continue
		}

		rejects = 0
		step++
		x = res.X
		if last {
			t = span.End
		} else {
			t += h
		}
		traj.Accepted++
		s.record(traj, x, t)

		dt = math.Max(policy.DtMin, math.Min(res.NextDt, policy.DtMax))
	}
	return traj, nil
}
