package observability

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/sim"
)

// SolverCollector bundles Prometheus metrics for solver runs. It implements
// sim.Observer, sim.RejectObserver and sim.FinishObserver, so it can be
// attached to a Solver (or an engine) shared by concurrent runs.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	Samples       prometheus.Counter
	RejectedSteps prometheus.Counter
	Runs          *prometheus.CounterVec
	RunDurations  *prometheus.HistogramVec
	RunSteps      *prometheus.HistogramVec
}

var (
	_ sim.Observer       = (*SolverCollector)(nil)
	_ sim.RejectObserver = (*SolverCollector)(nil)
	_ sim.FinishObserver = (*SolverCollector)(nil)
)

// NewSolverCollector registers solver metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petrode_solver_samples_total",
		Help: "Accepted samples recorded across all runs, including initial states.",
	}), "petrode_solver_samples_total")
	if err != nil {
		return nil, err
	}
	rejected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petrode_solver_rejected_steps_total",
		Help: "Adaptive steps rejected by the error estimate.",
	}), "petrode_solver_rejected_steps_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "petrode_solver_runs_total",
		Help: "Finished solver runs, labeled by step mode and outcome.",
	}, []string{"mode", "outcome"}), "petrode_solver_runs_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petrode_solver_run_duration_seconds",
		Help:    "Wall time of a solver run in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"mode"}), "petrode_solver_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petrode_solver_run_steps",
		Help:    "Accepted steps per successful run.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"mode"}), "petrode_solver_run_steps")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:      gatherer,
		Samples:       samples,
		RejectedSteps: rejected,
		Runs:          runs,
		RunDurations:  durations,
		RunSteps:      steps,
	}, nil
}

func (c *SolverCollector) OnStep(x dynamo.State, t float64) {
	if c == nil {
		return
	}
	c.Samples.Inc()
}

func (c *SolverCollector) OnReject(t, dt, errNorm float64) {
	if c == nil {
		return
	}
	c.RejectedSteps.Inc()
}

func (c *SolverCollector) OnFinish(stats sim.Stats, err error) {
	if c == nil {
		return
	}
	mode := stats.Mode.String()
	c.Runs.WithLabelValues(mode, Outcome(err)).Inc()
	c.RunDurations.WithLabelValues(mode).Observe(stats.Elapsed.Seconds())
	if err == nil {
		c.RunSteps.WithLabelValues(mode).Observe(float64(stats.Accepted))
	}
}

// Outcome classifies a run error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dynamo.ErrNonFinite):
		return "non_finite"
	case errors.Is(err, dynamo.ErrStepTooSmall):
		return "step_too_small"
	case errors.Is(err, dynamo.ErrCanceled):
		return "canceled"
	default:
		return "error"
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SolverCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
