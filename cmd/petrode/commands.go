package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/config"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/experiment"
	"github.com/san-kum/petrode/internal/export"
	"github.com/san-kum/petrode/internal/models"
	"github.com/san-kum/petrode/internal/optim"
	"github.com/san-kum/petrode/internal/viz"
)

// solve resolves the configuration for cmd and runs it.
func solve(cmd *cobra.Command, args []string) (*config.Config, *engine.Solution, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	name := cfg.Model
	if cfg.NetFile != "" {
		name = cfg.NetFile
	}
	logger.Info("solving", "model", name, "mode", cfg.Step.Mode, "span", cfg.Span.End-cfg.Span.Start)

	start := time.Now()
	sol, err := experiment.New(cfg, nil).Run(cmd.Context(), newEngine())
	if err != nil {
		return nil, nil, err
	}
	logger.Info("solved",
		"samples", sol.Len(),
		"accepted", sol.Accepted,
		"rejected", sol.Rejected,
		"elapsed", time.Since(start))
	return cfg, sol, nil
}

func metaOf(cfg *config.Config) export.Meta {
	mode := cfg.Step.Mode
	if mode == "" {
		mode = "fixed"
	}
	return export.Meta{Model: cfg.Model, Policy: cfg.Policy, Mode: mode}
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, sol, err := solve(cmd, args)
	if err != nil {
		return err
	}

	net := sol.Net()
	final := sol.Final()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLACE\tINITIAL\tFINAL")
	for i, id := range net.PlaceIDs() {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\n", id, sol.States[0][i], final[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nsamples: %d  accepted: %d  rejected: %d\n", sol.Len(), sol.Accepted, sol.Rejected)

	if outFile != "" {
		if err := export.WriteFile(outFile, sol, metaOf(cfg)); err != nil {
			return err
		}
		logger.Info("wrote solution", "path", outFile)
	}
	return nil
}

func plotSolve(cmd *cobra.Command, args []string) error {
	_, sol, err := solve(cmd, args)
	if err != nil {
		return err
	}

	if phase != "" {
		x, y, ok := strings.Cut(phase, ",")
		if !ok {
			return fmt.Errorf("--phase expects x,y, got %q", phase)
		}
		out, err := viz.PhasePortrait(sol, strings.TrimSpace(x), strings.TrimSpace(y), width/2, height)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	out, err := viz.PlotSeries(sol, places, width, height)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func exportSolve(cmd *cobra.Command, args []string) error {
	cfg, sol, err := solve(cmd, args)
	if err != nil {
		return err
	}
	if len(places) > 0 && strings.HasSuffix(strings.ToLower(outFile), ".svg") {
		svg, err := export.SeriesSVG(sol, places, 800, 400)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outFile, []byte(svg), 0o644); err != nil {
			return err
		}
	} else if err := export.WriteFile(outFile, sol, metaOf(cfg)); err != nil {
		return err
	}
	fmt.Printf("wrote %d samples to %s\n", sol.Len(), outFile)
	return nil
}

func watchSolve(cmd *cobra.Command, args []string) error {
	cfg, sol, err := solve(cmd, args)
	if err != nil {
		return err
	}
	player, err := viz.NewPlayer(cfg.Model, sol, places)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(player, tea.WithContext(cmd.Context())).Run()
	return err
}

func scoreOptions(cfg *config.Config) (analysis.ScoreOptions, error) {
	step, err := cfg.StepPolicy()
	if err != nil {
		return analysis.ScoreOptions{}, err
	}
	return analysis.ScoreOptions{
		Horizon: cfg.TimeSpan(),
		Step:    step,
		Workers: cfg.Workers,
		Engine:  newEngine(),
	}, nil
}

func heatmap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, []string{"tictactoe"})
	if err != nil {
		return err
	}
	b, err := experiment.BoardOf(cfg)
	if err != nil {
		return err
	}
	if w := b.Winner(); w != models.Empty {
		return fmt.Errorf("game is over: %s has won", w)
	}
	opts, err := scoreOptions(cfg)
	if err != nil {
		return err
	}

	scores, err := models.TicTacToeHeatmap(cmd.Context(), b, opts)
	if err != nil {
		return err
	}
	fmt.Println(viz.Heatmap(b, scores))
	fmt.Println(viz.Ranking(fmt.Sprintf("%s to move", strings.ToUpper(b.ToMove().String())), analysis.Recommend(scores), 20))
	return nil
}

func knapsack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, []string{"knapsack"})
	if err != nil {
		return err
	}
	opts, err := scoreOptions(cfg)
	if err != nil {
		return err
	}
	k := experiment.KnapsackOf(cfg)

	ranked, err := k.Recommend(cmd.Context(), opts, selected...)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Println("nothing else fits")
		return nil
	}
	title := "next item"
	if len(selected) > 0 {
		title = fmt.Sprintf("next item after %s", strings.Join(selected, ", "))
	}
	fmt.Println(viz.Ranking(title, ranked, 20))
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	parsed := make([]optim.Axis, 0, len(axes))
	for _, a := range axes {
		ax, err := optim.ParseAxis(a)
		if err != nil {
			return err
		}
		parsed = append(parsed, ax)
	}
	g, err := optim.NewGridSearch(parsed...)
	if err != nil {
		return err
	}

	s, err := experiment.New(cfg, nil).Setup()
	if err != nil {
		return err
	}
	logger.Info("sweeping", "model", cfg.Model, "points", g.Size(), "target", target)

	results, err := g.Search(cmd.Context(), s.Net, s.Rates, optim.Terminal(target), optim.SearchOptions{
		Span:    s.Span,
		Step:    s.Policy,
		X0:      s.X0,
		Workers: cfg.Workers,
		Engine:  newEngine(),
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(parsed))
	for _, a := range parsed {
		ids = append(ids, a.Transition)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\n", strings.ToUpper(strings.Join(ids, "\t")), strings.ToUpper(target))
	for i, r := range results {
		if topN > 0 && i >= topN {
			break
		}
		fmt.Fprintf(w, "%d", i+1)
		for _, id := range ids {
			fmt.Fprintf(w, "\t%.4g", r.Rates[id])
		}
		fmt.Fprintf(w, "\t%.6g\n", r.Score)
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESETS\tDESCRIPTION")
	for _, name := range registry.ListModels() {
		m, err := registry.GetModel(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(config.ListPresets(name), ","), m.Description)
	}
	return w.Flush()
}
