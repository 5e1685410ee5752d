package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/leap/internal/config"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       uint64
	controller string
	kp         float64
	dropEvery  float64
	lagSteps   int
	freeGoals  bool
	plot       bool
	numRuns    int
	workers    int
	spinRate   float64
	outFile    string
	svgOut     string
	spectrum   bool

	stepsPerFrame int
	gridParams    []string
	metricName    string
	minimize      bool
)

// main registers the leap commands and executes the root command. It exits
// with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "leap",
		Short:        "in-hand cube reorientation task harness",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "trace directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one episode and export its trace",
		Args:  cobra.NoArgs,
		RunE:  runEpisode,
	}
	addHarnessFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot orientation error and cost")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write the orientation error chart to an svg file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run episodes over consecutive seeds in parallel",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addHarnessFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numRuns, "runs", 8, "number of episodes")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent episodes (0: GOMAXPROCS)")

	noiseCmd := &cobra.Command{
		Use:   "noise",
		Short: "spin the cube and plot the observation noise walks",
		Args:  cobra.NoArgs,
		RunE:  runNoise,
	}
	addHarnessFlags(noiseCmd)
	noiseCmd.Flags().Float64Var(&spinRate, "spin", 1.0, "cube spin rate about z (rad/s)")
	noiseCmd.Flags().BoolVar(&spectrum, "spectrum", false, "also plot the spectrum of the angular velocity estimate")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run the live terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addHarnessFlags(watchCmd)
	watchCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 5, "simulation steps per redraw")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search task or policy parameters",
		Example: `  leap tune --param kp=1:8:8 --metric best_rotation_count
  leap tune --param ema_alpha=0.1:0.9:5 --param lag_steps=0:4:5 --metric orientation_error_deg --minimize`,
		Args: cobra.NoArgs,
		RunE: runTune,
	}
	addHarnessFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "param", nil, "grid axis as name=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "best_rotation_count", "metric to optimize")
	tuneCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize the metric instead of maximizing it")
	tuneCmd.Flags().IntVar(&numRuns, "runs", 4, "episodes per grid point")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent episodes (0: GOMAXPROCS)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	addHarnessFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the configuration to a yaml file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list exported traces",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, sweepCmd, noiseCmd, watchCmd, tuneCmd, configCmd, presetsCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addHarnessFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 30.0, "episode duration")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0: unseeded)")
	cmd.Flags().StringVar(&controller, "controller", "tracker", "policy: tracker, manual or none")
	cmd.Flags().Float64Var(&kp, "kp", 4.0, "tracker orientation gain")
	cmd.Flags().Float64Var(&dropEvery, "drop-every", 0, "drop the cube every n seconds (0: never)")
	cmd.Flags().IntVar(&lagSteps, "lag", 0, "observation lag in steps")
	cmd.Flags().BoolVar(&freeGoals, "free", false, "continuous goals instead of axis-aligned ones")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
