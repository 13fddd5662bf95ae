package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/facility-sim/facility-sim/sim/replication"
	"github.com/facility-sim/facility-sim/sim/results"
)

var (
	// replicate flags
	initialReplications int
	maxReplications     int
	precision           float64
	confidence          float64
	baseSeed            int64
	outputFormat        string // text or yaml
	dbPath              string // SQLite results database; empty disables persistence
	reportMetrics       bool
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run replications until every statistic reaches the requested precision",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if outputFormat != "text" && outputFormat != "yaml" {
			logrus.Fatalf("Unknown output format %q; valid: text, yaml", outputFormat)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := []replication.Option{replication.WithLogger(logrus.StandardLogger())}
		var collector *metricsCollector
		if reportMetrics {
			collector = newMetricsCollector()
			defer collector.Shutdown(context.Background())
			opts = append(opts, replication.WithMetrics(replication.NewMetricsRecorder()))
		}
		if dbPath != "" {
			store, err := results.NewSQLiteStore(dbPath)
			if err != nil {
				logrus.Fatalf("Opening results database: %v", err)
			}
			defer store.Close()
			opts = append(opts, replication.WithSink(store))
		}

		if err := runReplicate(ctx, os.Stdout, cfg, outputFormat, opts...); err != nil {
			logrus.Fatalf("Study failed: %v", err)
		}
		if collector != nil {
			if err := collector.Print(ctx, os.Stderr); err != nil {
				logrus.Warnf("Collecting metrics: %v", err)
			}
		}
	},
}

// runReplicate runs a study and writes the estimate to w as text or YAML.
func runReplicate(ctx context.Context, w io.Writer, cfg replication.Config, format string, opts ...replication.Option) error {
	c, err := replication.NewController(cfg, opts...)
	if err != nil {
		return err
	}
	logrus.Infof("Starting study %s: %d-%d replications, ±%v at %.0f%%",
		c.RunID(), cfg.InitialReplications, cfg.MaxReplications, cfg.Precision, cfg.Confidence*100)

	est, err := c.Run(ctx)
	if err != nil {
		return err
	}
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(est); err != nil {
			return fmt.Errorf("encode estimate: %w", err)
		}
	default:
		est.Print(w)
	}
	return nil
}

// applyReplicateFlags copies explicitly set study flags into cfg.
func applyReplicateFlags(cmd *cobra.Command, cfg *replication.Config) {
	flags := cmd.Flags()
	if flags.Changed("initial") {
		cfg.InitialReplications = initialReplications
	}
	if flags.Changed("max") {
		cfg.MaxReplications = maxReplications
	}
	if flags.Changed("precision") {
		cfg.Precision = precision
	}
	if flags.Changed("confidence") {
		cfg.Confidence = confidence
	}
	if flags.Changed("base-seed") {
		cfg.BaseSeed = baseSeed
	}
}

func init() {
	def := replication.DefaultConfig()
	replicateCmd.Flags().IntVar(&initialReplications, "initial", def.InitialReplications, "Replications before the stopping rule is checked")
	replicateCmd.Flags().IntVar(&maxReplications, "max", def.MaxReplications, "Maximum number of replications")
	replicateCmd.Flags().Float64Var(&precision, "precision", def.Precision, "Absolute half-width target of every controlling statistic")
	replicateCmd.Flags().Float64Var(&confidence, "confidence", def.Confidence, "Confidence level of the half-widths")
	replicateCmd.Flags().Int64Var(&baseSeed, "base-seed", def.BaseSeed, "Seed of the first replication; replication i uses base-seed + i")
	replicateCmd.Flags().StringVar(&outputFormat, "output", "text", "Estimate output format (text, yaml)")
	replicateCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to persist replications and the estimate into")
	replicateCmd.Flags().BoolVar(&reportMetrics, "metrics", false, "Print OpenTelemetry study metrics to stderr when done")
}
