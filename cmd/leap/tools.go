package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/leap/internal/analysis"
	"github.com/san-kum/leap/internal/config"
	"github.com/san-kum/leap/internal/export"
	"github.com/san-kum/leap/internal/metrics"
	"github.com/san-kum/leap/internal/optim"
	"github.com/san-kum/leap/internal/sim"
	"github.com/san-kum/leap/internal/viz"
)

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := sim.NewKinematic(harnessOptions(cfg, zap.NewNop()), cfg.Seed)
	if err != nil {
		return err
	}
	if err := s.Reset(); err != nil {
		return err
	}
	title := fmt.Sprintf("leap · %s", cfg.Controller)
	if preset != "" {
		title += " · " + preset
	}
	return viz.Run(viz.NewModel(s, cfg.Dt, stepsPerFrame, title))
}

// gridAxis is one --param flag: name=lo:hi:n.
type gridAxis struct {
	name   string
	values []float64
}

func parseAxis(arg string) (gridAxis, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return gridAxis{}, fmt.Errorf("param %q: want name=lo:hi:n", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return gridAxis{}, fmt.Errorf("param %q: want name=lo:hi:n", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return gridAxis{}, fmt.Errorf("param %s: %w", name, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return gridAxis{}, fmt.Errorf("param %s: %w", name, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return gridAxis{}, fmt.Errorf("param %s: bad point count %q", name, parts[2])
	}
	return gridAxis{name: name, values: optim.Linspace(lo, hi, n)}, nil
}

// trialOptions splits a grid point into task and policy parameters. Names
// the task knows go to the session, the rest to the policy.
func trialOptions(cfg *config.Config, point map[string]float64) (sim.Options, error) {
	params := cfg.TaskParams()
	policyParams := cfg.PolicyParams()
	if policyParams == nil {
		policyParams = make(map[string]float64)
	}
	taskNames := params.Map()
	for _, name := range slices.Sorted(maps.Keys(point)) {
		if _, ok := taskNames[name]; ok {
			p, err := params.With(name, point[name])
			if err != nil {
				return sim.Options{}, err
			}
			params = p
			continue
		}
		policyParams[name] = point[name]
	}
	opts := harnessOptions(cfg, zap.NewNop())
	opts.Params = params
	opts.PolicyParams = policyParams
	return opts, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, arg := range gridParams {
		axis, err := parseAxis(arg)
		if err != nil {
			return err
		}
		names = append(names, axis.name)
		ranges = append(ranges, axis.values)
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if !minimize {
		grid.Maximize()
	}

	trial := func(ctx context.Context, point map[string]float64) (map[string]float64, error) {
		opts, err := trialOptions(cfg, point)
		if err != nil {
			return nil, err
		}
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
		results, err := ens.Run(ctx, simConfig(cfg))
		if err != nil {
			return nil, err
		}
		out := make(map[string]float64)
		for name := range results[0].Metrics {
			vals := make([]float64, len(results))
			for i, r := range results {
				vals[i] = r.Metrics[name]
			}
			out[name] = stat.Mean(vals, nil)
		}
		fmt.Printf("  %v -> %s=%.4f\n", point, metricName, out[metricName])
		return out, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("searching %d points x %d episodes on %s\n", grid.Size(), numRuns, metricName)
	best, err := grid.Search(ctx, trial, metricName)
	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s=%.4f after %d trials\n", metricName, best.Value, best.Trials)
	for _, name := range slices.Sorted(maps.Keys(best.Params)) {
		fmt.Printf("  %s: %g\n", name, best.Params[name])
	}
	return nil
}

func writeSeriesSVG(path string, dt float64, frames []sim.Frame) error {
	errs := make([]float64, len(frames))
	for i, f := range frames {
		errs[i] = f.Telemetry.OrientationErrorDeg
	}
	chart := &export.Chart{
		Title:  "orientation error (deg)",
		Dt:     dt,
		Series: []export.Series{{Label: "error", Values: errs}},
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.WriteSVG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSpectrum(frames []sim.Frame, dt float64) error {
	axes := []string{"x", "y", "z"}
	for k, axis := range axes {
		series := make([]float64, len(frames))
		for i, f := range frames {
			series[i] = f.AngularVelocity[k]
		}
		spec, err := analysis.Spectrum(series, dt)
		if err != nil {
			return err
		}
		freq, amp := spec.Peak()
		fmt.Println(asciigraph.Plot(spec.Amplitude[1:],
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("angular velocity %s spectrum, peak %.2f Hz (%.4f rad/s)", axis, freq, amp)),
		))
		fmt.Println()
	}
	return nil
}
