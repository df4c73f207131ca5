package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/rates"
)

const (
	DefaultDt    = 0.05
	DefaultEnd   = 10.0
	DefaultModel = "split"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Config describes one solve: which net, which rates, and how to step.
// Either Model (a registry name) or NetFile (a YAML/JSON net document) picks
// the net; NetFile wins when both are set.
type Config struct {
	Model   string             `yaml:"model,omitempty" json:"model,omitempty"`
	NetFile string             `yaml:"net_file,omitempty" json:"net_file,omitempty"`
	Params  map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
	Board   string             `yaml:"board,omitempty" json:"board,omitempty"`

	Knapsack *KnapsackConfig `yaml:"knapsack,omitempty" json:"knapsack,omitempty"`

	Policy    string             `yaml:"policy,omitempty" json:"policy,omitempty"`
	Selection []string           `yaml:"selection,omitempty" json:"selection,omitempty"`
	Weights   map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Rates     map[string]float64 `yaml:"rates,omitempty" json:"rates,omitempty"`
	Initial   map[string]float64 `yaml:"initial,omitempty" json:"initial,omitempty"`

	Span    SpanConfig `yaml:"span" json:"span"`
	Step    StepConfig `yaml:"step" json:"step"`
	Workers int        `yaml:"workers,omitempty" json:"workers,omitempty"`
}

type SpanConfig struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

type StepConfig struct {
	Mode       string  `yaml:"mode" json:"mode"`
	Dt         float64 `yaml:"dt,omitempty" json:"dt,omitempty"`
	RelTol     float64 `yaml:"rtol,omitempty" json:"rtol,omitempty"`
	AbsTol     float64 `yaml:"atol,omitempty" json:"atol,omitempty"`
	DtMin      float64 `yaml:"dt_min,omitempty" json:"dt_min,omitempty"`
	DtMax      float64 `yaml:"dt_max,omitempty" json:"dt_max,omitempty"`
	InitialDt  float64 `yaml:"initial_dt,omitempty" json:"initial_dt,omitempty"`
	MaxRejects int     `yaml:"max_rejects,omitempty" json:"max_rejects,omitempty"`
}

type KnapsackConfig struct {
	Capacity int          `yaml:"capacity" json:"capacity"`
	Items    []ItemConfig `yaml:"items" json:"items"`
}

type ItemConfig struct {
	ID     string `yaml:"id" json:"id"`
	Weight int    `yaml:"weight" json:"weight"`
	Value  int    `yaml:"value" json:"value"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  DefaultModel,
		Policy: "uniform",
		Span:   SpanConfig{Start: 0, End: DefaultEnd},
		Step:   StepConfig{Mode: "fixed", Dt: DefaultDt},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// TimeSpan is the configured integration interval.
func (c *Config) TimeSpan() dynamo.Span {
	return dynamo.Span{Start: c.Span.Start, End: c.Span.End}
}

// StepPolicy converts the step section. Unset adaptive knobs take the
// dynamo defaults; dt_max defaults to the span length.
func (c *Config) StepPolicy() (dynamo.StepPolicy, error) {
	switch c.Step.Mode {
	case "", "fixed":
		dt := c.Step.Dt
		if dt == 0 {
			dt = DefaultDt
		}
		return dynamo.Fixed(dt), nil
	case "adaptive":
		s := c.Step
		rtol, atol := s.RelTol, s.AbsTol
		if rtol == 0 && atol == 0 {
			rtol, atol = dynamo.DefaultRelTol, dynamo.DefaultAbsTol
		}
		dtMin := s.DtMin
		if dtMin == 0 {
			dtMin = dynamo.DefaultDtMin
		}
		dtMax := s.DtMax
		if dtMax == 0 {
			dtMax = c.TimeSpan().Length()
		}
		p := dynamo.Adaptive(rtol, atol, dtMin, dtMax)
		p.InitialDt = s.InitialDt
		if s.MaxRejects > 0 {
			p.MaxRejects = s.MaxRejects
		}
		return p, nil
	default:
		return dynamo.StepPolicy{}, fmt.Errorf("%w: unknown step mode %q", ErrInvalid, c.Step.Mode)
	}
}

// RatePolicy resolves policy, selection and weights.
func (c *Config) RatePolicy() (rates.Policy, error) {
	return rates.ParsePolicy(c.Policy, c.Selection, c.Weights)
}

// Validate checks everything that can be checked without building the net.
func (c *Config) Validate() error {
	var errs []error
	if c.Model == "" && c.NetFile == "" {
		errs = append(errs, fmt.Errorf("%w: either model or net_file is required", ErrInvalid))
	}
	if err := c.TimeSpan().Validate(); err != nil {
		errs = append(errs, err)
	}
	if p, err := c.StepPolicy(); err != nil {
		errs = append(errs, err)
	} else if err := p.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RatePolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be non-negative", ErrInvalid))
	}
	return errors.Join(errs...)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Params = cloneMap(c.Params)
	out.Weights = cloneMap(c.Weights)
	out.Rates = cloneMap(c.Rates)
	out.Initial = cloneMap(c.Initial)
	out.Selection = append([]string(nil), c.Selection...)
	if c.Knapsack != nil {
		k := *c.Knapsack
		k.Items = append([]ItemConfig(nil), c.Knapsack.Items...)
		out.Knapsack = &k
	}
	return &out
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
