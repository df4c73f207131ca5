package config

import "sort"

var Presets = map[string]map[string]*Config{
	"split": {
		"reference": {
			Model: "split", Policy: "uniform",
			Params: map[string]float64{"full": 15},
			Span:   SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
		"masked": {
			Model: "split", Policy: "selection", Selection: []string{"t1"},
			Params: map[string]float64{"full": 15},
			Span:   SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
	},
	"chain": {
		"short": {
			Model: "chain", Params: map[string]float64{"size": 3, "initial": 10},
			Span: SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
		"long": {
			Model: "chain", Params: map[string]float64{"size": 12, "initial": 100},
			Span: SpanConfig{End: 60}, Step: StepConfig{Mode: "adaptive", RelTol: 1e-8, AbsTol: 1e-10, DtMax: 1},
		},
	},
	"competition": {
		"even": {
			Model: "competition", Params: map[string]float64{"sinks": 4, "source": 12},
			Span: SpanConfig{End: 5}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
		"weighted": {
			Model: "competition", Params: map[string]float64{"sinks": 3, "source": 12},
			Policy: "exclusion", Weights: map[string]float64{"T0": 3, "T1": 2, "T2": 1},
			Span: SpanConfig{End: 5}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
	},
	"catalysis": {
		"slow": {
			Model: "catalysis", Params: map[string]float64{"substrate": 10, "enzyme": 0.2},
			Span: SpanConfig{End: 30}, Step: StepConfig{Mode: "adaptive", RelTol: 1e-6, AbsTol: 1e-9, DtMax: 2},
		},
	},
	"knapsack": {
		"baseline": {
			Model: "knapsack", Policy: "uniform",
			Span: SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
		"greedy": {
			Model: "knapsack", Policy: "exclusion",
			Span: SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
	},
	"tictactoe": {
		"opening": {
			Model: "tictactoe", Board: ".........",
			Span: SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
		"fork": {
			Model: "tictactoe", Board: "x../.o./..x",
			Span: SpanConfig{End: 10}, Step: StepConfig{Mode: "fixed", Dt: 0.05},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
