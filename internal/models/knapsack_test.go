package models

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/dynamo"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/rates"
)

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestKnapsackNet(t *testing.T) {
	k := DefaultKnapsack()
	net, err := k.Net("a")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	levels := net.StateMap(net.InitialState())
	want := map[string]float64{
		PlaceCapacity: 13, PlaceWeight: 2, PlaceValue: 10,
		"item_a": 0, "taken_a": 1,
		"item_b": 1, "taken_b": 0,
		"item_c": 1, "taken_c": 0,
		"item_d": 1, "taken_d": 0,
	}
	if diff := cmp.Diff(want, levels); diff != "" {
		t.Errorf("initial levels mismatch (-want +got):\n%s", diff)
	}

	if _, err := k.Net("zzz"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	if _, err := k.Net("a", "c", "d"); !errors.Is(err, ErrOverweight) {
		t.Errorf("expected ErrOverweight, got %v", err)
	}
	full, err := k.Net("c", "d")
	if err != nil {
		t.Fatalf("exact fit rejected: %v", err)
	}
	if got := full.StateMap(full.InitialState())[PlaceCapacity]; got != 0 {
		t.Errorf("expected capacity 0 at an exact fit, got %v", got)
	}
	if _, err := (Knapsack{Capacity: 0}).Net(); err == nil {
		t.Error("expected an error for zero capacity")
	}
}

func TestKnapsackConservesCapacity(t *testing.T) {
	k := DefaultKnapsack()
	net, err := k.Net()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	rm, err := rates.For(net, k.Exclusion())
	if err != nil {
		t.Fatalf("rates failed: %v", err)
	}
	sol, err := engine.Solve(context.Background(), net, rm, nil, dynamo.Span{End: 10}, dynamo.Fixed(0.05))
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	for _, ids := range [][]string{
		{PlaceCapacity, PlaceWeight},
		{"item_a", "taken_a"},
		{"item_d", "taken_d"},
	} {
		drift, err := analysis.ConservationDrift(sol, ids...)
		if err != nil {
			t.Fatalf("drift failed: %v", err)
		}
		if drift > 1e-9 {
			t.Errorf("%v drifted by %g", ids, drift)
		}
	}

	capacity, _ := analysis.TerminalValue(sol, PlaceCapacity)
	if capacity < 0 || capacity > 1e-3 {
		t.Errorf("expected capacity to be nearly used up, got %v", capacity)
	}
	a, _ := analysis.TerminalValue(sol, "taken_a")
	d, _ := analysis.TerminalValue(sol, "taken_d")
	if a <= d {
		t.Errorf("expected the most efficient item to be taken most, got a=%v d=%v", a, d)
	}
}

func TestKnapsackExclusionFreezesSelection(t *testing.T) {
	k := DefaultKnapsack()
	net, _ := k.Net()
	rm, err := rates.For(net, k.Exclusion("b"))
	if err != nil {
		t.Fatalf("rates failed: %v", err)
	}
	got := rm.Map()
	if got["take_b"] != 0 {
		t.Errorf("expected selected item to be excluded, got %v", got["take_b"])
	}
	if got["take_a"] != 5 || got["take_d"] != 2 {
		t.Errorf("expected efficiency weights, got %v", got)
	}
}

func TestKnapsackCandidates(t *testing.T) {
	k := DefaultKnapsack()
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, k.Candidates()); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	// c and b leave 5 units: only a fits.
	if diff := cmp.Diff([]string{"a"}, k.Candidates("c", "b")); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestKnapsackRecommend(t *testing.T) {
	k := DefaultKnapsack()
	opts := analysis.ScoreOptions{Horizon: dynamo.Span{End: 10}, Step: dynamo.Fixed(0.05), Workers: 2}

	ranked, err := k.Recommend(context.Background(), opts)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	var order []string
	for _, r := range ranked {
		order = append(order, r.ID)
		if math.IsNaN(r.Score) || r.Score > 38+1e-6 {
			t.Errorf("%s scored %v, above the best reachable value", r.ID, r.Score)
		}
	}
	if diff := cmp.Diff([]string{"b", "a", "c", "d"}, order); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}

	ranked, err = k.Recommend(context.Background(), opts, "b")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if ranked[0].ID != "a" {
		t.Errorf("expected a to follow b, got %v", ranked)
	}
}
