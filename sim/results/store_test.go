package results

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/replication"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleStats(busy float64) *sim.ReplicationStats {
	return &sim.ReplicationStats{
		Start: 600,
		End:   2400,
		Buffers: []sim.BufferStats{
			{Workstation: sim.WS1, Kind: sim.C1, Occupancy: 0.8, EntryRate: 0.1, MeanWait: 8},
		},
		BusyRatio:    map[sim.WorkstationID]float64{sim.WS1: busy},
		Throughput:   map[sim.ProductKind]float64{sim.P1: 0.1},
		BlockedRatio: map[sim.Role]float64{},
	}
}

func TestSQLiteStore_ReplicationValues_InIndexOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN three replications saved out of order
	require.NoError(t, s.SaveReplication(ctx, "run-1", 2, 11, sampleStats(0.5)))
	require.NoError(t, s.SaveReplication(ctx, "run-1", 1, 10, sampleStats(0.4)))
	require.NoError(t, s.SaveReplication(ctx, "run-1", 3, 12, sampleStats(0.6)))
	require.NoError(t, s.SaveReplication(ctx, "run-2", 1, 10, sampleStats(0.9)))

	// WHEN the busy ratio series is read back
	values, err := s.ReplicationValues(ctx, "run-1", "busy WS1")

	// THEN it is ordered by replication index and scoped to the run
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, values)

	occupancy, err := s.ReplicationValues(ctx, "run-1", "occupancy WS1/C1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.8, 0.8, 0.8}, occupancy)
}

func TestSQLiteStore_DuplicateReplication_Fails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReplication(ctx, "run-1", 1, 10, sampleStats(0.5)))
	assert.Error(t, s.SaveReplication(ctx, "run-1", 1, 10, sampleStats(0.5)))
}

func TestSQLiteStore_EstimateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	est := &replication.Estimate{
		RunID:        "run-1",
		Replications: 12,
		Converged:    true,
		Confidence:   0.95,
		Precision:    0.02,
		Stats: []replication.StatEstimate{
			{Name: "busy WS1", Mean: 0.5, StdDev: 0.02, HalfWidth: 0.01, Required: 4, Controls: true},
			{Name: "little residual WS1/C1", Mean: 0, StdDev: 0, HalfWidth: math.Inf(1), Required: math.Inf(1)},
		},
	}

	require.NoError(t, s.SaveEstimate(ctx, est))
	got, err := s.LoadEstimate(ctx, "run-1")

	require.NoError(t, err)
	assert.Equal(t, est, got)
}

func TestSQLiteStore_SaveEstimate_Replaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := &replication.Estimate{RunID: "r", Replications: 10, Stats: []replication.StatEstimate{{Name: "a"}, {Name: "b"}}}
	second := &replication.Estimate{RunID: "r", Replications: 14, Converged: true, Stats: []replication.StatEstimate{{Name: "a", Mean: 2}}}

	require.NoError(t, s.SaveEstimate(ctx, first))
	require.NoError(t, s.SaveEstimate(ctx, second))

	got, err := s.LoadEstimate(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Replications)
	assert.True(t, got.Converged)
	require.Len(t, got.Stats, 1)
	assert.Equal(t, 2.0, got.Stats[0].Mean)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r", runs[0].RunID)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestSQLiteStore_LoadEstimate_Unknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadEstimate(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	ctx := context.Background()

	assert.ErrorIs(t, s.SaveReplication(ctx, "r", 1, 1, sampleStats(0)), ErrStoreClosed)
	assert.ErrorIs(t, s.SaveEstimate(ctx, &replication.Estimate{RunID: "r"}), ErrStoreClosed)
	_, err = s.LoadEstimate(ctx, "r")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = s.ListRuns(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveEstimate(ctx, &replication.Estimate{RunID: "r", Replications: 10}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.LoadEstimate(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Replications)
}

func TestSQLiteStore_AsControllerSink(t *testing.T) {
	// GIVEN a short study persisting into the store
	s := newTestStore(t)
	cfg := replication.DefaultConfig()
	cfg.Workload.ComponentsPerQueue = 300
	cfg.WarmupMinutes = 100
	cfg.InitialReplications = 2
	cfg.MaxReplications = 2
	cfg.Precision = 100
	c, err := replication.NewController(cfg, replication.WithSink(s))
	require.NoError(t, err)

	// WHEN it runs
	est, err := c.Run(context.Background())
	require.NoError(t, err)

	// THEN the stored estimate matches and every replication was recorded
	got, err := s.LoadEstimate(context.Background(), c.RunID())
	require.NoError(t, err)
	assert.Equal(t, est.Replications, got.Replications)
	require.Len(t, got.Stats, len(est.Stats))
	for i := range est.Stats {
		assert.Equal(t, est.Stats[i].Name, got.Stats[i].Name)
		assert.InDelta(t, est.Stats[i].Mean, got.Stats[i].Mean, 1e-12)
	}
	values, err := s.ReplicationValues(context.Background(), c.RunID(), "busy WS2")
	require.NoError(t, err)
	assert.Len(t, values, 2)
}
