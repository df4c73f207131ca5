package experiment

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/config"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

func TestRegistryBuildsEveryModel(t *testing.T) {
	r := NewRegistry()
	want := []string{"catalysis", "chain", "competition", "knapsack", "split", "tictactoe"}
	if diff := cmp.Diff(want, r.ListModels()); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
	for _, name := range want {
		m, err := r.GetModel(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if m.Description == "" {
			t.Errorf("%s: missing description", name)
		}
		cfg := config.DefaultConfig()
		cfg.Model = name
		if _, err := m.Build(cfg); err != nil {
			t.Errorf("%s: build failed: %v", name, err)
		}
	}

	if _, err := r.GetModel("pendulum"); err == nil {
		t.Error("expected unknown model error")
	}
}

func TestRunPresets(t *testing.T) {
	for model := range config.Presets {
		for _, name := range config.ListPresets(model) {
			cfg := config.GetPreset(model, name)
			sol, err := New(cfg, nil).Run(context.Background(), nil)
			if err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
				continue
			}
			if sol.Times[0] != cfg.Span.Start || sol.Times[sol.Len()-1] != cfg.Span.End {
				t.Errorf("%s/%s: samples cover [%v, %v]", model, name, sol.Times[0], sol.Times[sol.Len()-1])
			}
		}
	}
}

func TestSetupOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rates = map[string]float64{"t2": 0}
	cfg.Initial = map[string]float64{"s1": 2}

	s, err := New(cfg, nil).Setup()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"t1": 1, "t2": 0}, s.Rates.Map()); diff != "" {
		t.Errorf("rates mismatch (-want +got):\n%s", diff)
	}
	if got := s.Net.StateMap(s.X0)["s1"]; got != 2 {
		t.Errorf("expected s1 initial 2, got %v", got)
	}
	if s.Net.InitialState()[1] != 0 {
		t.Error("initial override leaked into the net")
	}

	cfg.Initial = map[string]float64{"nope": 1}
	if _, err := New(cfg, nil).Setup(); !errors.Is(err, petri.ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference, got %v", err)
	}

	cfg.Initial = nil
	cfg.Rates = map[string]float64{"t9": 1}
	if _, err := New(cfg, nil).Setup(); !errors.Is(err, rates.ErrUnknownTransition) {
		t.Errorf("expected ErrUnknownTransition, got %v", err)
	}
}

func TestKnapsackPolicy(t *testing.T) {
	cfg := config.GetPreset("knapsack", "greedy")
	cfg.Selection = []string{"a"}
	s, err := New(cfg, nil).Setup()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	got := s.Rates.Map()
	if got["take_a"] != 0 || got["take_b"] != 2.5 {
		t.Errorf("unexpected knapsack rates %v", got)
	}
	if v := s.Net.StateMap(s.X0)["taken_a"]; v != 1 {
		t.Errorf("expected a to be packed, got %v", v)
	}

	cfg.Knapsack = &config.KnapsackConfig{Capacity: 3, Items: []config.ItemConfig{{ID: "x", Weight: 1, Value: 4}}}
	cfg.Selection = nil
	sol, err := New(cfg, nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	taken, _ := analysis.TerminalValue(sol, "taken_x")
	if math.Abs(taken-1) > 1e-6 {
		t.Errorf("expected the only item to be taken, got %v", taken)
	}
}

func TestRunNetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	doc := `
places:
  a: {initial: 4}
  b: {}
transitions:
  move: {}
arcs:
  - {source: a, target: move}
  - {source: move, target: b}
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.NetFile = path
	sol, err := New(cfg, nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, _ := analysis.TerminalValue(sol, "b")
	if want := 4 * (1 - math.Exp(-10)); math.Abs(b-want) > 1e-6 {
		t.Errorf("expected b=%v, got %v", want, b)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Step.Mode = "bogus"
	if _, err := New(cfg, nil).Run(context.Background(), nil); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}
