package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facility-sim/facility-sim/sim/replication"
	"github.com/facility-sim/facility-sim/sim/results"
)

// storedStudy runs a short study into a fresh database and returns the
// store and the study's run ID.
func storedStudy(t *testing.T) (*results.SQLiteStore, string) {
	t.Helper()
	store, err := results.NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := replication.NewController(studyConfig(), replication.WithSink(store))
	require.NoError(t, err)
	_, err = c.Run(context.Background())
	require.NoError(t, err)
	return store, c.RunID()
}

func TestShowRuns_ListsStoredStudies(t *testing.T) {
	store, runID := storedStudy(t)
	var buf bytes.Buffer

	require.NoError(t, showRuns(context.Background(), &buf, store, "", ""))

	assert.Contains(t, buf.String(), "REPLICATIONS")
	assert.Contains(t, buf.String(), runID)
}

func TestShowRuns_PrintsEstimateAndStatSeries(t *testing.T) {
	// GIVEN a stored two-replication study
	store, runID := storedStudy(t)
	var buf bytes.Buffer

	// WHEN one run and one statistic are requested
	err := showRuns(context.Background(), &buf, store, runID, "busy WS1")

	// THEN the estimate and both replication values are printed
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "=== Estimate "+runID)
	assert.Contains(t, out, "busy WS1 per replication")
	assert.Contains(t, out, "   1  ")
	assert.Contains(t, out, "   2  ")
}

func TestShowRuns_UnknownRunOrStat(t *testing.T) {
	store, runID := storedStudy(t)

	err := showRuns(context.Background(), &bytes.Buffer{}, store, "missing", "")
	assert.ErrorIs(t, err, results.ErrRunNotFound)

	err = showRuns(context.Background(), &bytes.Buffer{}, store, runID, "no such statistic")
	assert.Error(t, err)
}
