package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrNonFinite indicates a derivative or state value became NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive timestep collapsed below its floor.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrCanceled indicates the run was abandoned through its context.
	ErrCanceled = errors.New("dynamo: integration canceled by context")

	// ErrInvalidPolicy indicates an unusable span or step policy.
	ErrInvalidPolicy = errors.New("dynamo: invalid step policy")

	// ErrDimensionMismatch indicates an initial state sized differently from the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the step and time at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
