package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/petrode/internal/config"
	"github.com/san-kum/petrode/internal/engine"
	"github.com/san-kum/petrode/internal/logging"
	"github.com/san-kum/petrode/internal/observability"
)

var (
	// global
	logLevel    string
	logFormat   string
	metricsAddr string
	trace       bool

	// solve configuration
	configFile string
	preset     string
	dt         float64
	endTime    float64
	stepMode   string
	rtol       float64
	atol       float64
	policy     string
	selection  []string
	rateFlags  []string
	initFlags  []string
	paramFlags []string
	board      string
	workers    int

	// output
	places   []string
	outFile  string
	width    int
	height   int
	phase    string
	axes     []string
	target   string
	topN     int
	selected []string
)

var (
	logger         *slog.Logger
	collector      *observability.SolverCollector
	shutdownTrace  func(context.Context) error
	metricsServer  *http.Server
	metricsTimeout = 5 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "petrode",
		Short:             "continuous relaxation of petri nets",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env "+logging.EnvLevel+")")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (env "+logging.EnvFormat+")")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "write solver spans to stderr")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "solve a model and print final levels",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	solveFlags(runCmd)
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "also write the solution (.csv, .json or .svg)")

	plotCmd := &cobra.Command{
		Use:   "plot [model]",
		Short: "solve a model and plot place levels over time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotSolve,
	}
	solveFlags(plotCmd)
	plotFlags(plotCmd)
	plotCmd.Flags().StringVar(&phase, "phase", "", "phase portrait of two places, as x,y")

	exportCmd := &cobra.Command{
		Use:   "export [model]",
		Short: "solve a model and write the solution to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSolve,
	}
	solveFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "solution.csv", "output file (.csv, .json or .svg)")
	exportCmd.Flags().StringSliceVar(&places, "places", nil, "places to draw (svg only)")

	watchCmd := &cobra.Command{
		Use:   "watch [model]",
		Short: "solve a model and replay it in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchSolve,
	}
	solveFlags(watchCmd)
	watchCmd.Flags().StringSliceVar(&places, "places", nil, "places to show (default all)")

	heatmapCmd := &cobra.Command{
		Use:   "heatmap",
		Short: "score every empty tic-tac-toe cell for the player to move",
		Args:  cobra.NoArgs,
		RunE:  heatmap,
	}
	horizonFlags(heatmapCmd)
	heatmapCmd.Flags().StringVar(&board, "board", "", "board as rows of x, o and . separated by /")

	knapsackCmd := &cobra.Command{
		Use:   "knapsack",
		Short: "rank the next knapsack item by lookahead value",
		Args:  cobra.NoArgs,
		RunE:  knapsack,
	}
	horizonFlags(knapsackCmd)
	knapsackCmd.Flags().StringSliceVar(&selected, "selected", nil, "items already packed")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid search rate constants to maximize a place's final level",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	solveFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "sweep axis t=v1,v2 or t=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&target, "target", "", "place whose final level is maximized")
	sweepCmd.Flags().IntVar(&topN, "top", 10, "results to print")
	_ = sweepCmd.MarkFlagRequired("axis")
	_ = sweepCmd.MarkFlagRequired("target")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, plotCmd, exportCmd, watchCmd, heatmapCmd, knapsackCmd, sweepCmd, modelsCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	teardown(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func solveFlags(cmd *cobra.Command) {
	horizonFlags(cmd)
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or json)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&policy, "policy", "uniform", "rate policy: uniform, selection or exclusion")
	cmd.Flags().StringSliceVar(&selection, "select", nil, "transitions (or knapsack items) the policy selects")
	cmd.Flags().StringArrayVar(&rateFlags, "rate", nil, "rate override t=k (repeatable)")
	cmd.Flags().StringArrayVar(&initFlags, "init", nil, "initial level override p=v (repeatable)")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "model parameter k=v (repeatable)")
	cmd.Flags().StringVar(&board, "board", "", "tic-tac-toe board")
}

func horizonFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fixed timestep")
	cmd.Flags().Float64Var(&endTime, "time", config.DefaultEnd, "end of the integration span")
	cmd.Flags().StringVar(&stepMode, "mode", "fixed", "step mode: fixed or adaptive")
	cmd.Flags().Float64Var(&rtol, "rtol", 0, "relative tolerance (adaptive)")
	cmd.Flags().Float64Var(&atol, "atol", 0, "absolute tolerance (adaptive)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel solves (0 = GOMAXPROCS)")
}

func plotFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&places, "places", nil, "places to plot (default all)")
	cmd.Flags().IntVar(&width, "width", 80, "plot width")
	cmd.Flags().IntVar(&height, "height", 12, "plot height")
}

func setup(cmd *cobra.Command, args []string) error {
	logger = logging.FromEnv(logLevel, logFormat, os.Stderr)
	slog.SetDefault(logger)
	ctx := cmd.Context()

	tcfg := observability.TracingConfigFromEnv()
	if trace {
		tcfg.Enabled = true
		tcfg.Exporter = "stdout"
	}
	tcfg.Writer = os.Stderr
	shutdown, err := observability.InitTracing(ctx, tcfg, logger)
	if err != nil {
		return err
	}
	shutdownTrace = shutdown

	if metricsAddr != "" {
		collector, err = observability.NewSolverCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		metricsServer = serveMetrics(metricsAddr, collector)
	}
	return nil
}

func serveMetrics(addr string, c *observability.SolverCollector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: metricsTimeout}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server exited", "error", err)
		}
	}()
	logger.Info("serving Prometheus metrics", "addr", addr)
	return srv
}

func teardown(ctx context.Context) {
	if shutdownTrace != nil {
		observability.ShutdownWithTimeout(ctx, shutdownTrace, logger)
	}
	if metricsServer != nil {
		sctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(sctx)
	}
}

// newEngine returns an engine reporting to the metrics collector, if any.
func newEngine() *engine.Engine {
	eng := engine.New()
	if collector != nil {
		eng.AddObserver(collector)
	}
	return eng
}

// loadConfig layers defaults, preset, config file, then explicitly set
// flags. A model argument replaces the configured model.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	model := ""
	if len(args) > 0 {
		model = args[0]
	}

	if preset != "" {
		name := model
		if name == "" {
			name = cfg.Model
		}
		p := config.GetPreset(name, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(name))
		}
		cfg = p
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if model != "" {
		cfg.Model = model
		cfg.NetFile = ""
	}

	return applyFlags(cmd, cfg)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	changed := cmd.Flags().Changed
	if changed("dt") {
		cfg.Step.Dt = dt
	}
	if changed("time") {
		cfg.Span.End = endTime
	}
	if changed("mode") {
		cfg.Step.Mode = stepMode
	}
	if changed("rtol") {
		cfg.Step.RelTol = rtol
	}
	if changed("atol") {
		cfg.Step.AbsTol = atol
	}
	if changed("workers") {
		cfg.Workers = workers
	}
	if changed("policy") {
		cfg.Policy = policy
	}
	if changed("select") {
		cfg.Selection = selection
	}
	if changed("board") {
		cfg.Board = board
	}

	var err error
	if cfg.Rates, err = mergeAssignments(cfg.Rates, rateFlags); err != nil {
		return nil, fmt.Errorf("--rate: %w", err)
	}
	if cfg.Initial, err = mergeAssignments(cfg.Initial, initFlags); err != nil {
		return nil, fmt.Errorf("--init: %w", err)
	}
	if cfg.Params, err = mergeAssignments(cfg.Params, paramFlags); err != nil {
		return nil, fmt.Errorf("--param: %w", err)
	}
	return cfg, cfg.Validate()
}

// mergeAssignments parses key=value pairs over m.
func mergeAssignments(m map[string]float64, pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return m, nil
	}
	if m == nil {
		m = make(map[string]float64, len(pairs))
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m[strings.TrimSpace(k)] = f
	}
	return m, nil
}
