package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/petri"
	"github.com/san-kum/petrode/internal/rates"
)

var (
	ErrUnknownItem = errors.New("models: unknown item")
	ErrOverweight  = errors.New("models: selection exceeds capacity")
)

type Item struct {
	ID     string `yaml:"id" json:"id"`
	Weight int    `yaml:"weight" json:"weight"`
	Value  int    `yaml:"value" json:"value"`
}

// Efficiency is value per unit weight.
func (it Item) Efficiency() float64 { return float64(it.Value) / float64(it.Weight) }

type Knapsack struct {
	Items    []Item `yaml:"items" json:"items"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

func DefaultKnapsack() Knapsack {
	return Knapsack{
		Items: []Item{
			{ID: "a", Weight: 2, Value: 10},
			{ID: "b", Weight: 4, Value: 10},
			{ID: "c", Weight: 6, Value: 12},
			{ID: "d", Weight: 9, Value: 18},
		},
		Capacity: 15,
	}
}

// Place and transition ids of the knapsack net.
const (
	PlaceCapacity = "capacity"
	PlaceWeight   = "weight"
	PlaceValue    = "value"
)

func ItemPlace(id string) string      { return "item_" + id }
func TakenPlace(id string) string     { return "taken_" + id }
func TakeTransition(id string) string { return "take_" + id }

func (k Knapsack) item(id string) (Item, bool) {
	for _, it := range k.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (k Knapsack) validate() error {
	if k.Capacity <= 0 {
		return fmt.Errorf("models: knapsack capacity must be positive, got %d", k.Capacity)
	}
	for _, it := range k.Items {
		if it.Weight <= 0 || it.Value <= 0 {
			return fmt.Errorf("models: item %q needs positive weight and value", it.ID)
		}
	}
	return nil
}

// Net builds the knapsack net with every item in the selection already
// packed. take_i consumes item_i and weight_i units of capacity and produces
// taken_i, weight_i units of weight and value_i units of value.
func (k Knapsack) Net(selected ...string) (*petri.Net, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	sel := rates.Select(selected...)
	used, gained := 0, 0
	for id := range sel {
		it, ok := k.item(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
		}
		used += it.Weight
		gained += it.Value
	}
	if used > k.Capacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrOverweight, used, k.Capacity)
	}

	b := petri.NewBuilder().
		Place(PlaceCapacity, float64(k.Capacity-used)).
		Place(PlaceWeight, float64(used)).
		Place(PlaceValue, float64(gained))
	for _, it := range k.Items {
		taken := sel.Has(it.ID)
		t := TakeTransition(it.ID)
		b.Place(ItemPlace(it.ID), indicator(!taken)).
			Place(TakenPlace(it.ID), indicator(taken)).
			Transition(t).
			Arc(ItemPlace(it.ID), t, 1).
			Arc(PlaceCapacity, t, it.Weight).
			Arc(t, TakenPlace(it.ID), 1).
			Arc(t, PlaceWeight, it.Weight).
			Arc(t, PlaceValue, it.Value)
	}
	return b.Build()
}

// Efficiency weights each take transition by its item's value per weight.
func (k Knapsack) Efficiency() rates.WeightFunc {
	w := make(map[string]float64, len(k.Items))
	for _, it := range k.Items {
		w[TakeTransition(it.ID)] = it.Efficiency()
	}
	return rates.Weights(w)
}

// Exclusion is the weighted-exclusion policy that freezes the selected items
// and lets the rest compete by efficiency.
func (k Knapsack) Exclusion(selected ...string) rates.WeightedExclusion {
	ex := make(rates.Selection, len(selected))
	for _, id := range selected {
		ex[TakeTransition(id)] = struct{}{}
	}
	return rates.WeightedExclusion{Excluded: ex, Weight: k.Efficiency()}
}

// Candidates lists unselected items that still fit.
func (k Knapsack) Candidates(selected ...string) []string {
	sel := rates.Select(selected...)
	room := k.Capacity
	for id := range sel {
		if it, ok := k.item(id); ok {
			room -= it.Weight
		}
	}
	var out []string
	for _, it := range k.Items {
		if !sel.Has(it.ID) && it.Weight <= room {
			out = append(out, it.ID)
		}
	}
	return out
}

// Variant returns the lookahead variant for adding a candidate item to the
// selection: the candidate is packed and the remaining items compete by
// efficiency for what capacity is left.
func (k Knapsack) Variant(selected ...string) analysis.VariantFunc {
	return func(candidate string) (analysis.Variant, error) {
		next := append(append([]string(nil), selected...), candidate)
		net, err := k.Net(next...)
		if err != nil {
			return analysis.Variant{}, err
		}
		return analysis.Variant{Net: net, Policy: k.Exclusion(next...)}, nil
	}
}

// Recommend scores every remaining candidate by the value the lookahead
// reaches at the horizon and ranks them.
func (k Knapsack) Recommend(ctx context.Context, opts analysis.ScoreOptions, selected ...string) ([]analysis.Ranked, error) {
	opts.Objective = analysis.Objective{Outcome: PlaceValue}
	scores, err := analysis.ScoreHypotheticalMoves(ctx, k.Variant(selected...), k.Candidates(selected...), opts)
	if err != nil {
		return nil, err
	}
	return analysis.Recommend(scores), nil
}
