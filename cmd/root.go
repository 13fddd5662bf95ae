package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/replication"
	"github.com/facility-sim/facility-sim/sim/trace"
	"github.com/facility-sim/facility-sim/sim/workload"
)

var (
	// Shared CLI flags
	logLevel           string // Log verbosity level
	defaultsFilePath   string // Path to defaults.yaml
	policy             string // Inspector1 dispatch policy
	componentsPerQueue int    // Durations drawn per station
	warmupMinutes      float64

	// run flags
	seed       int64  // Seed of the single replication
	traceLevel string // Dispatch trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "facility-sim",
	Short: "Discrete-event simulator for a two-inspector, three-workstation assembly line",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd executes a single replication and prints its statistics.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one replication and print its steady-state statistics",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, steps, events", traceLevel)
		}
		logrus.Infof("Starting replication: seed=%d, policy=%s, %d components per queue",
			seed, cfg.Policy, cfg.Workload.ComponentsPerQueue)
		if err := runSingle(os.Stdout, cfg, seed, trace.TraceLevel(traceLevel), logrus.StandardLogger()); err != nil {
			logrus.Fatalf("Replication failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig loads the defaults file and applies every flag the user
// set explicitly. A missing defaults file falls back to built-in values
// unless --defaults was given.
func resolveConfig(cmd *cobra.Command) (replication.Config, error) {
	fileCfg, err := loadDefaultsConfig(defaultsFilePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("defaults") {
			return replication.Config{}, err
		}
		logrus.Debugf("No defaults file at %s, using built-in values", defaultsFilePath)
		fileCfg = builtinDefaults()
	}
	cfg := fileCfg.ReplicationConfig()

	// Flags override file values only when set explicitly.
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = sim.DispatchPolicy(policy)
	}
	if flags.Changed("components-per-queue") {
		cfg.Workload.ComponentsPerQueue = componentsPerQueue
	}
	if flags.Changed("warmup") {
		cfg.WarmupMinutes = warmupMinutes
	}
	applyReplicateFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return replication.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runSingle runs one replication seeded with seed and writes its report to w.
func runSingle(w io.Writer, cfg replication.Config, seed int64, level trace.TraceLevel, log logrus.FieldLogger) error {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	supplies, err := workload.GenerateSupplies(cfg.Workload, rng)
	if err != nil {
		return fmt.Errorf("generating supplies: %w", err)
	}

	opts := []sim.Option{sim.WithLogger(log), sim.WithDispatchPolicy(cfg.Policy)}
	var st *trace.SimulationTrace
	if level != "" && level != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
		opts = append(opts, sim.WithTrace(st))
	}
	f := sim.NewFacility(supplies, rng.ForSubsystem(sim.SubsystemDecision), opts...)
	elapsed := f.Run()
	res := f.Result()

	fmt.Fprintf(w, "=== Replication (seed %d) ===\n", seed)
	fmt.Fprintf(w, "Elapsed             : %v min over %d steps\n", elapsed, res.Steps)
	for _, id := range sim.AllWorkstations {
		fmt.Fprintf(w, "Products %s        : %d\n", id, res.ProductCount(id))
	}

	stats, err := sim.ComputeStats(res, sim.TimeStamp(cfg.WarmupMinutes))
	if err != nil {
		return err
	}
	stats.Print(w)

	if st != nil {
		printTraceSummary(w, trace.Summarize(st))
	}
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Dispatch steps      : %d (last at %.2f)\n", s.TotalSteps, s.LastClock)
	for _, name := range []string{"WS1", "WS2", "WS3", "Inspector1", "Inspector2"} {
		fmt.Fprintf(w, "  %-17s : %d\n", name, s.StepsPerActor[name])
	}
	if s.TotalBroadcasts > 0 {
		fmt.Fprintf(w, "Broadcasts          : %d (max derived %d)\n", s.TotalBroadcasts, s.MaxDerived)
		for _, kind := range []sim.EventKind{sim.EventSimulationStarted, sim.EventWorkstationStarted, sim.EventAssembled} {
			fmt.Fprintf(w, "  %-17s : %d\n", kind, s.EventDistribution[string(kind)])
		}
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to the defaults YAML file")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", string(sim.LeastLoaded), fmt.Sprintf("Inspector1 dispatch policy %v", sim.ValidDispatchPolicyNames()))
	rootCmd.PersistentFlags().IntVar(&componentsPerQueue, "components-per-queue", workload.DefaultComponentsPerQueue, "Durations drawn per inspector kind and workstation")
	rootCmd.PersistentFlags().Float64Var(&warmupMinutes, "warmup", 600, "Warm-up minutes excluded from statistics")

	runCmd.Flags().Int64Var(&seed, "seed", 1, "Seed of the replication")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Dispatch trace level (none, steps, events)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
	rootCmd.AddCommand(runsCmd)
}
