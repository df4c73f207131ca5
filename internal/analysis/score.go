package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
	"github.com/san-kum/petrode/internal/sim"
)

const tracerName = "github.com/san-kum/petrode/internal/analysis"

// Variant is a net reflecting one hypothetical move, with the rate policy to
// run it under. A nil Policy means Uniform.
type Variant struct {
	Net    *petri.Net
	Policy rates.Policy
}

// VariantFunc builds the variant for one candidate. It is called
// concurrently and must not share mutable state between calls.
type VariantFunc func(candidate string) (Variant, error)

// Objective names the place whose terminal level scores a candidate, and
// optionally an opposing place subtracted from it.
type Objective struct {
	Outcome  string
	Opposing string
}

type ScoreOptions struct {
	Horizon   dynamo.Span
	Step      dynamo.StepPolicy
	Objective Objective
	// Workers bounds parallel solves; <= 0 means GOMAXPROCS.
	Workers int
	// Engine runs the solves; nil means a fresh engine.
	Engine *engine.Engine
}

// ScoreHypotheticalMoves solves one variant per candidate and scores it as
// terminal(Outcome) − terminal(Opposing). Candidates are independent: a
// candidate's score does not depend on which others are scored with it.
func ScoreHypotheticalMoves(ctx context.Context, variant VariantFunc, candidates []string, opts ScoreOptions) (map[string]float64, error) {
	if opts.Objective.Outcome == "" {
		return nil, fmt.Errorf("analysis: objective has no outcome place")
	}
	eng := opts.Engine
	if eng == nil {
		eng = engine.New()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "analysis.ScoreHypotheticalMoves")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	unique := dedupe(candidates)
	scores := make([]float64, len(unique))
	err := sim.Map(ctx, len(unique), opts.Workers, func(ctx context.Context, i int) error {
		s, err := scoreOne(ctx, eng, variant, unique[i], opts)
		if err != nil {
			return fmt.Errorf("candidate %q: %w", unique[i], err)
		}
		scores[i] = s
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make(map[string]float64, len(unique))
	for i, c := range unique {
		out[c] = scores[i]
	}
	return out, nil
}

func scoreOne(ctx context.Context, eng *engine.Engine, variant VariantFunc, candidate string, opts ScoreOptions) (float64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analysis.scoreCandidate")
	defer span.End()
	span.SetAttributes(attribute.String("candidate", candidate))

	v, err := variant(candidate)
	if err != nil {
		return 0, err
	}
	policy := v.Policy
	if policy == nil {
		policy = rates.Uniform{}
	}
	rm, err := rates.For(v.Net, policy)
	if err != nil {
		return 0, err
	}

	sol, err := eng.Solve(ctx, v.Net, rm, nil, opts.Horizon, opts.Step)
	if err != nil {
		return 0, err
	}

	score, err := TerminalValue(sol, opts.Objective.Outcome)
	if err != nil {
		return 0, err
	}
	if opts.Objective.Opposing != "" {
		opp, err := TerminalValue(sol, opts.Objective.Opposing)
		if err != nil {
			return 0, err
		}
		score -= opp
	}
	span.SetAttributes(attribute.Float64("score", score))
	return score, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Ranked is one entry of a recommendation.
type Ranked struct {
	ID    string
	Score float64
}

// Recommend orders scores best first, breaking ties by id.
func Recommend(scores map[string]float64) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for id, s := range scores {
		out = append(out, Ranked{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Normalize maps scores linearly onto [0, 1]. When every score is equal all
// map to 0.
func Normalize(scores map[string]float64) map[string]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	out := make(map[string]float64, len(scores))
	for id, s := range scores {
		if hi > lo {
			out[id] = (s - lo) / (hi - lo)
		} else {
			out[id] = 0
		}
	}
	return out
}
