package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/petrode/internal/config"
	"github.com/san-kum/petrode/internal/models"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

// Model builds a named net from a run configuration. Policy, when set,
// replaces the generic policy/selection/weights interpretation for nets
// whose transitions are not addressed by the caller directly.
type Model struct {
	Description string
	Build       func(cfg *config.Config) (*petri.Net, error)
	Policy      func(cfg *config.Config) (rates.Policy, error)
}

type Registry struct {
	models map[string]Model
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Model)}

	r.models["split"] = Model{
		Description: "one full place drained by two transitions into sinks s1 and s2",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			return petri.NewBuilder().
				Place("full", param(cfg, "full", 15)).Place("s1", 0).Place("s2", 0).
				Transition("t1").Transition("t2").
				Arc("full", "t1", 1).Arc("t1", "s1", 1).
				Arc("full", "t2", 1).Arc("t2", "s2", 1).
				Build()
		},
	}
	r.models["chain"] = Model{
		Description: "transfer chain A0 -> ... -> A(n-1)",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			return models.Chain(int(param(cfg, "size", 3)), param(cfg, "initial", 10))
		},
	}
	r.models["competition"] = Model{
		Description: "one source feeding n competing sinks",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			return models.Competition(int(param(cfg, "sinks", 3)), param(cfg, "source", 9))
		},
	}
	r.models["catalysis"] = Model{
		Description: "substrate -> product with an enzyme on a read arc",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			return models.Catalysis(param(cfg, "substrate", 10), param(cfg, "enzyme", 1))
		},
	}
	r.models["knapsack"] = Model{
		Description: "0/1 knapsack relaxation; selection names packed items",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			return KnapsackOf(cfg).Net(cfg.Selection...)
		},
		Policy: knapsackPolicy,
	}
	r.models["tictactoe"] = Model{
		Description: "tic-tac-toe from board, player to move holds the turn",
		Build: func(cfg *config.Config) (*petri.Net, error) {
			b, err := BoardOf(cfg)
			if err != nil {
				return nil, err
			}
			return models.TicTacToe(b, b.ToMove())
		},
	}

	return r
}

func (r *Registry) GetModel(name string) (Model, error) {
	m, ok := r.models[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown model: %s", name)
	}
	return m, nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func param(cfg *config.Config, key string, def float64) float64 {
	if v, ok := cfg.Params[key]; ok {
		return v
	}
	return def
}

// KnapsackOf returns the configured knapsack, or the default instance.
func KnapsackOf(cfg *config.Config) models.Knapsack {
	if cfg.Knapsack == nil {
		return models.DefaultKnapsack()
	}
	k := models.Knapsack{Capacity: cfg.Knapsack.Capacity}
	for _, it := range cfg.Knapsack.Items {
		k.Items = append(k.Items, models.Item{ID: it.ID, Weight: it.Weight, Value: it.Value})
	}
	return k
}

func knapsackPolicy(cfg *config.Config) (rates.Policy, error) {
	k := KnapsackOf(cfg)
	switch cfg.Policy {
	case "", "uniform":
		return rates.Uniform{}, nil
	case "selection", "masked":
		sel := make(rates.Selection, len(cfg.Selection))
		for _, id := range cfg.Selection {
			sel[models.TakeTransition(id)] = struct{}{}
		}
		return rates.SelectionMasked{Selected: sel}, nil
	case "exclusion", "weighted":
		return k.Exclusion(cfg.Selection...), nil
	default:
		return nil, fmt.Errorf("unknown rate policy: %s", cfg.Policy)
	}
}

// BoardOf parses the configured board; an empty board string is the opening.
func BoardOf(cfg *config.Config) (models.Board, error) {
	if cfg.Board == "" {
		return models.Board{}, nil
	}
	return models.ParseBoard(cfg.Board)
}
