package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestMergeAssignments(t *testing.T) {
	got, err := mergeAssignments(map[string]float64{"t1": 1}, []string{"t1=2", " t2 = 0.5 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["t1"] != 2 || got["t2"] != 0.5 {
		t.Errorf("unexpected result %v", got)
	}

	for _, bad := range []string{"t1", "=1", "t1=x"} {
		if _, err := mergeAssignments(nil, []string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLoadConfigFlagsOverridePreset(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	solveFlags(cmd)
	if err := cmd.ParseFlags([]string{"--preset", "masked", "--time", "3", "--rate", "t2=4"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(func() { preset, endTime, rateFlags = "", 0, nil })

	cfg, err := loadConfig(cmd, []string{"split"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Policy != "selection" || len(cfg.Selection) != 1 || cfg.Selection[0] != "t1" {
		t.Errorf("expected preset policy to survive, got %q %v", cfg.Policy, cfg.Selection)
	}
	if cfg.Span.End != 3 {
		t.Errorf("expected --time to override span end, got %v", cfg.Span.End)
	}
	if cfg.Step.Dt != 0.05 {
		t.Errorf("expected preset dt, got %v", cfg.Step.Dt)
	}
	if cfg.Rates["t2"] != 4 {
		t.Errorf("expected rate override, got %v", cfg.Rates)
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	solveFlags(cmd)
	if err := cmd.ParseFlags([]string{"--preset", "nope"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(func() { preset = "" })

	if _, err := loadConfig(cmd, []string{"split"}); err == nil {
		t.Error("expected error for unknown preset")
	}
}
