package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/racesim/racesim/sim/pipeline"
	"github.com/racesim/racesim/sim/strategy"
	"github.com/racesim/racesim/sim/trace"
)

var (
	// CLI flags shared by every command
	rosterPath string // Roster YAML, embedded season when empty
	totalLaps  int    // Overrides the roster lap count when > 0
	logLevel   string // Log verbosity level

	// CLI flags for the live race
	seed          int64         // Seed for violation sampling
	tickInterval  time.Duration // Wall-clock pause per tick
	bufferSize    int           // Frames the consumer may fall behind
	optimizeRefs  []string      // Drivers to optimize before the race
	outputFormat  string        // text or json
	jsonDrivers   []string      // Drivers exported in json mode
	metricsAddr   string        // Serve Prometheus metrics on this address
	traceLevel    string        // Decision trace level
	snapshotEvery int           // Consumed frames per snapshot

	// CLI flags for strategy analysis
	candidateLaps []int    // Pit laps tested per driver
	strategyRefs  []string // Drivers to optimize
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "racesim",
	Short: "Fixed-timestep motor race simulator with live race control",
}

// runCmd races the roster with a live producer/consumer pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a live race",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runRace(ctx, raceOptionsFromFlags(), cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			logrus.Fatalf("race failed: %v", err)
		}
	},
}

// strategyCmd runs the pit-lap search only
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Search the fastest single pit stop lap for each driver",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if err := checkOutput(outputFormat); err != nil {
			logrus.Fatalf("%v", err)
		}
		r, err := loadRoster(rosterPath, totalLaps)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		drivers, err := r.Resolve(strategyRefs)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		results, err := optimize(r.RaceConfig(), drivers, candidateLaps, nil, logrus.NewEntry(logrus.StandardLogger()))
		if err != nil {
			logrus.Fatalf("strategy analysis failed: %v", err)
		}
		if outputFormat == "json" {
			if err := printStrategyJSON(cmd.OutOrStdout(), results); err != nil {
				logrus.Fatalf("%v", err)
			}
			return
		}
		printStrategyReport(cmd.OutOrStdout(), r, results)
	},
}

// rosterCmd prints the grid
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Print the track and grid of the roster",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		r, err := loadRoster(rosterPath, totalLaps)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printRoster(cmd.OutOrStdout(), r)
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// raceOptions collects everything runRace needs from the flags.
type raceOptions struct {
	RosterPath    string
	Laps          int
	Seed          int64
	TickInterval  time.Duration
	BufferSize    int
	Optimize      []string
	Candidates    []int
	Output        string
	JSONDrivers   []string
	MetricsAddr   string
	TraceLevel    string
	SnapshotEvery int
}

func raceOptionsFromFlags() raceOptions {
	return raceOptions{
		RosterPath:    rosterPath,
		Laps:          totalLaps,
		Seed:          seed,
		TickInterval:  tickInterval,
		BufferSize:    bufferSize,
		Optimize:      optimizeRefs,
		Candidates:    candidateLaps,
		Output:        outputFormat,
		JSONDrivers:   jsonDrivers,
		MetricsAddr:   metricsAddr,
		TraceLevel:    traceLevel,
		SnapshotEvery: snapshotEvery,
	}
}

// runRace optionally optimizes pit laps, then races to the flag. Telemetry
// goes to out; the strategy report and race summary go to out in text mode
// and to info in json mode so that out stays one JSON object per line.
func runRace(ctx context.Context, opts raceOptions, out, info io.Writer) error {
	if err := checkOutput(opts.Output); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(opts.TraceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions", opts.TraceLevel)
	}
	if opts.Output == "text" {
		info = out
	}

	r, err := loadRoster(opts.RosterPath, opts.Laps)
	if err != nil {
		return err
	}
	raceID := uuid.NewString()
	log := logrus.WithField("race_id", raceID)

	var metrics *pipeline.Metrics
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = pipeline.NewMetrics(reg, "")
		shutdown := serveMetrics(opts.MetricsAddr, reg)
		defer shutdown()
	}

	cfg := r.RaceConfig()
	var schedule map[int]int
	if len(opts.Optimize) > 0 {
		drivers, err := r.Resolve(opts.Optimize)
		if err != nil {
			return err
		}
		var runs prometheus.Counter
		if metrics != nil {
			runs = metrics.StrategyRuns
		}
		results, err := optimize(cfg, drivers, opts.Candidates, runs, log)
		if err != nil {
			return err
		}
		printStrategyReport(info, r, results)
		schedule = strategy.Schedule(results)
	}

	var presenter pipeline.Presenter = newTextPresenter(out, r)
	if opts.Output == "json" {
		refs := opts.JSONDrivers
		if len(refs) == 0 {
			refs = []string{"all"}
		}
		exported, err := r.Resolve(refs)
		if err != nil {
			return err
		}
		presenter = newJSONPresenter(out, raceID, r, schedule, exported)
	}

	rt := trace.NewRaceTrace(trace.TraceConfig{Level: trace.TraceLevel(opts.TraceLevel)})
	runnerOpts := []pipeline.Option{pipeline.WithLogger(log), pipeline.WithTrace(rt)}
	if metrics != nil {
		runnerOpts = append(runnerOpts, pipeline.WithMetrics(metrics))
	}
	runner, err := pipeline.NewRunner(pipeline.Config{
		Race:          cfg,
		PitSchedule:   schedule,
		BufferSize:    opts.BufferSize,
		TickInterval:  opts.TickInterval,
		SnapshotEvery: opts.SnapshotEvery,
		Seed:          opts.Seed,
	}, presenter, runnerOpts...)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printRaceResult(info, r, raceID, res)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, strategyCmd, rosterCmd} {
		c.Flags().StringVar(&rosterPath, "roster", "", "Roster YAML file (default: embedded 2025 season)")
		c.Flags().IntVar(&totalLaps, "laps", 0, "Race distance in laps (default: from roster)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for track limits violation sampling")
	runCmd.Flags().DurationVar(&tickInterval, "tick-interval", pipeline.DefaultTickInterval, "Wall-clock pause per tick (0 runs flat out)")
	runCmd.Flags().IntVar(&bufferSize, "buffer", pipeline.DefaultBufferSize, "Telemetry buffer capacity in frames")
	runCmd.Flags().StringSliceVar(&optimizeRefs, "optimize", nil, "Drivers (index, id or name, or all) to optimize before the race")
	runCmd.Flags().IntSliceVar(&candidateLaps, "candidates", strategy.DefaultCandidateLaps, "Candidate pit laps")
	runCmd.Flags().StringVar(&outputFormat, "output", "text", "Output format (text, json)")
	runCmd.Flags().StringSliceVar(&jsonDrivers, "json-drivers", nil, "Drivers exported in json mode (default: all)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level ("+strings.Join([]string{string(trace.TraceLevelNone), string(trace.TraceLevelDecisions)}, ", ")+")")
	runCmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 0, "Consumed frames per standings snapshot (default: driver count)")

	strategyCmd.Flags().IntSliceVar(&candidateLaps, "candidates", strategy.DefaultCandidateLaps, "Candidate pit laps")
	strategyCmd.Flags().StringSliceVar(&strategyRefs, "drivers", []string{"all"}, "Drivers (index, id or name, or all) to optimize")
	strategyCmd.Flags().StringVar(&outputFormat, "output", "text", "Output format (text, json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(strategyCmd)
	rootCmd.AddCommand(rosterCmd)
}
