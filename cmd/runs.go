package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facility-sim/facility-sim/sim/results"
)

var (
	// runs flags
	showRunID string // Estimate to print; empty lists every run
	showStat  string // Statistic whose per-replication values to print
)

// runsCmd reads back studies saved by `replicate --db`.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored studies or print one estimate from a results database",
	Run: func(cmd *cobra.Command, args []string) {
		if dbPath == "" {
			logrus.Fatalf("--db is required")
		}
		store, err := results.NewSQLiteStore(dbPath)
		if err != nil {
			logrus.Fatalf("Opening results database: %v", err)
		}
		defer store.Close()

		if err := showRuns(context.Background(), cmd.OutOrStdout(), store, showRunID, showStat); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// showRuns lists every run when runID is empty. Otherwise it prints the
// run's estimate and, if stat is set, that statistic's value per replication.
func showRuns(ctx context.Context, w io.Writer, store *results.SQLiteStore, runID, stat string) error {
	if runID == "" {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		fmt.Fprintf(w, "%-36s  %-12s  %-9s  %s\n", "RUN", "REPLICATIONS", "CONVERGED", "CREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s  %-12d  %-9t  %s\n", r.RunID, r.Replications, r.Converged, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	est, err := store.LoadEstimate(ctx, runID)
	if err != nil {
		return err
	}
	est.Print(w)
	if stat == "" {
		return nil
	}
	values, err := store.ReplicationValues(ctx, runID, stat)
	if err != nil {
		return fmt.Errorf("reading %q: %w", stat, err)
	}
	if len(values) == 0 {
		return fmt.Errorf("run %s has no values for statistic %q", runID, stat)
	}
	fmt.Fprintf(w, "=== %s per replication ===\n", stat)
	for i, v := range values {
		fmt.Fprintf(w, "%4d  %.6f\n", i+1, v)
	}
	return nil
}

func init() {
	runsCmd.Flags().StringVar(&dbPath, "db", "", "SQLite results database written by `replicate --db`")
	runsCmd.Flags().StringVar(&showRunID, "run", "", "Run ID whose estimate to print; empty lists every run")
	runsCmd.Flags().StringVar(&showStat, "stat", "", "Statistic to print per replication, e.g. \"busy WS1\" (requires --run)")
}
