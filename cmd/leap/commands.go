package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leap/internal/config"
	"github.com/san-kum/leap/internal/engine"
	"github.com/san-kum/leap/internal/metrics"
	"github.com/san-kum/leap/internal/sim"
	"github.com/san-kum/leap/internal/storage"
)

// loadConfig resolves defaults, preset, yaml file, environment and flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(cfg, configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.OutputDir = dataDir
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("kp") {
		cfg.ControllerParams.Kp = kp
	}
	if flags.Changed("drop-every") {
		cfg.ControllerParams.DropEvery = dropEvery
	}
	if flags.Changed("lag") {
		cfg.Task.LagSteps = lagSteps
	}
	if flags.Changed("free") {
		cfg.Task.AxisAlignedGoal = !freeGoals
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func harnessOptions(cfg *config.Config, log *zap.Logger) sim.Options {
	return sim.Options{
		Model:        engine.DefaultModel(),
		Params:       cfg.TaskParams(),
		Policy:       cfg.Controller,
		PolicyParams: cfg.PolicyParams(),
		Log:          log,
	}
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		Seed:          cfg.Seed,
		ValidateState: true,
		RecordEvery:   cfg.RecordEvery,
	}
}

func runEpisode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := sim.NewKinematic(harnessOptions(cfg, log), cfg.Seed)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s episode (%.1fs, dt=%.4f)...\n", cfg.Controller, cfg.Duration, cfg.Dt)
	start := time.Now()
	result, err := s.Run(ctx, simConfig(cfg))
	if err != nil && result == nil {
		return err
	}
	if result.Err != nil {
		log.Warn("episode finished with errors", zap.Error(result.Err))
	}
	elapsed := time.Since(start)

	st := storage.New(cfg.OutputDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Session:    s.Session().ID().String(),
		Preset:     preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Controller: cfg.Controller,
		Params:     s.Session().GetParams(),
	}, result)
	if err != nil {
		return err
	}

	if svgOut != "" && len(result.Frames) > 1 {
		if err := writeSeriesSVG(svgOut, frameStep(cfg), result.Frames); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	printMetrics(result.Metrics)

	if plot && len(result.Frames) > 0 {
		errs := make([]float64, len(result.Frames))
		costs := make([]float64, len(result.Frames))
		for i, f := range result.Frames {
			errs[i] = f.Telemetry.OrientationErrorDeg
			costs[i] = f.Cost
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(errs, asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption("orientation error (deg)")))
		fmt.Println()
		fmt.Println(asciigraph.Plot(costs, asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption("cost")))
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts := harnessOptions(cfg, log)
	ens := sim.NewEnsemble(func(seed uint64) (*sim.Simulator, error) {
		s, err := sim.NewKinematic(opts, seed)
		if err != nil {
			return nil, err
		}
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}
		return s, nil
	}, numRuns, max(cfg.Seed, 1))
	ens.SetWorkers(workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := ens.Run(ctx, simConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("%d episodes in %v\n\n", len(results), time.Since(start))

	names := make([]string, 0)
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range names {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[name]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			name, mean, std, slices.Min(vals), slices.Max(vals))
	}
	return w.Flush()
}

func runNoise(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("controller") {
		cfg.Controller = "manual"
	}
	cfg.ControllerParams.SpinRate = spinRate

	s, err := sim.NewKinematic(harnessOptions(cfg, zap.NewNop()), cfg.Seed)
	if err != nil {
		return err
	}
	result, err := s.Run(context.Background(), simConfig(cfg))
	if err != nil {
		return err
	}
	if len(result.Frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	captions := []string{
		"orientation noise x (rad)", "orientation noise y (rad)", "orientation noise z (rad)",
		"position noise x (m)", "position noise y (m)", "position noise z (m)",
	}
	for k, caption := range captions {
		data := make([]float64, len(result.Frames))
		for i, f := range result.Frames {
			data[i] = f.Noise[k]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}
	if spectrum {
		return printSpectrum(result.Frames, frameStep(cfg))
	}
	return nil
}

// frameStep is the time between recorded frames.
func frameStep(cfg *config.Config) float64 {
	return cfg.Dt * float64(max(cfg.RecordEvery, 1))
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, p := range config.ListPresets() {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tCTRL\tSEED\tBEST\tDROPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%.0f\t%.0f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Controller,
			run.Seed,
			run.Metrics["best_rotation_count"],
			run.Metrics["drops"],
		)
	}

	return w.Flush()
}
