package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/petrode/internal/config"
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

// Setup is everything a solve needs, resolved from a configuration.
type Setup struct {
	Net    *petri.Net
	Rates  rates.RateMap
	X0     dynamo.State
	Span   dynamo.Span
	Policy dynamo.StepPolicy
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{cfg: cfg, registry: registry}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Net builds the configured net, from NetFile when set.
func (e *Experiment) Net() (*petri.Net, error) {
	if e.cfg.NetFile != "" {
		return petri.Load(e.cfg.NetFile)
	}
	m, err := e.registry.GetModel(e.cfg.Model)
	if err != nil {
		return nil, err
	}
	return m.Build(e.cfg)
}

// Setup validates the configuration and resolves net, rates, initial state
// and step policy.
func (e *Experiment) Setup() (*Setup, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	net, err := e.Net()
	if err != nil {
		return nil, fmt.Errorf("build net: %w", err)
	}

	var policy rates.Policy
	if m, err := e.registry.GetModel(e.cfg.Model); err == nil && m.Policy != nil && e.cfg.NetFile == "" {
		policy, err = m.Policy(e.cfg)
		if err != nil {
			return nil, err
		}
	} else {
		policy, err = e.cfg.RatePolicy()
		if err != nil {
			return nil, err
		}
	}

	rm, err := rates.For(net, policy)
	if err != nil {
		return nil, fmt.Errorf("assign rates: %w", err)
	}
	if len(e.cfg.Rates) > 0 {
		if rm, err = rates.Override(rm, e.cfg.Rates); err != nil {
			return nil, fmt.Errorf("override rates: %w", err)
		}
	}

	x0 := net.InitialState()
	for id, v := range e.cfg.Initial {
		i, ok := net.PlaceIndex(id)
		if !ok {
			return nil, fmt.Errorf("initial level: %w", &petri.ModelError{Kind: petri.ErrUnknownReference, Ref: id})
		}
		x0[i] = v
	}

	step, err := e.cfg.StepPolicy()
	if err != nil {
		return nil, err
	}
	return &Setup{Net: net, Rates: rm, X0: x0, Span: e.cfg.TimeSpan(), Policy: step}, nil
}

// Run resolves the configuration and solves it on eng.
func (e *Experiment) Run(ctx context.Context, eng *engine.Engine) (*engine.Solution, error) {
	s, err := e.Setup()
	if err != nil {
		return nil, err
	}
	if eng == nil {
		eng = engine.New()
	}
	return eng.Solve(ctx, s.Net, s.Rates, s.X0, s.Span, s.Policy)
}
