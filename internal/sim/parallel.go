package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/petrode/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Map calls fn for every index in [0, n) on at most workers goroutines
// (GOMAXPROCS when workers <= 0). The first error cancels the context passed
// to the remaining calls and is returned. Calls skipped because ctx is done
// report ErrCanceled like an interrupted run.
func Map(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &dynamo.SimulationError{Wrapped: fmt.Errorf("%w: %w", dynamo.ErrCanceled, err)}
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Job is one independent run of an Ensemble.
type Job struct {
	System dynamo.System
	X0     dynamo.State
}

// Ensemble runs independent jobs through one Solver in parallel.
type Ensemble struct {
	solver  *Solver
	workers int
}

func NewEnsemble(s *Solver, workers int) *Ensemble {
	return &Ensemble{solver: s, workers: workers}
}

// Run returns one trajectory per job, in job order, or the first error.
func (e *Ensemble) Run(ctx context.Context, jobs []Job, span dynamo.Span, policy dynamo.StepPolicy) ([]*dynamo.Trajectory, error) {
	results := make([]*dynamo.Trajectory, len(jobs))
	err := Map(ctx, len(jobs), e.workers, func(ctx context.Context, i int) error {
		traj, err := e.solver.Run(ctx, jobs[i].System, jobs[i].X0, span, policy)
		if err != nil {
			return err
		}
		results[i] = traj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
