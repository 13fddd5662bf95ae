package replication

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/workload"
)

func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	return reader, func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder_NotNoop(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestOtelMetrics_RecordReplicationAndStudy(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordReplication(ctx, 2400, 900)
	m.RecordReplication(ctx, 2500, 950)
	m.RecordFailure(ctx, "window")
	m.RecordStudy(ctx, 2, true)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "facility.replications")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "facility.replication.failures")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "facility.studies")))

	elapsed := findMetric(rm, "facility.replication.elapsed_minutes")
	require.NotNil(t, elapsed)
	hist, ok := elapsed.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 4900, hist.DataPoints[0].Sum, 1e-9)
}

func TestController_RecordsMetrics(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	cfg := smallConfig()
	cfg.Precision = 100
	c, err := NewController(cfg, WithMetrics(m))
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.NoError(t, err)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(cfg.InitialReplications), sumOf(t, findMetric(rm, "facility.replications")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "facility.studies")))
}

func TestNoopMetrics_DoesNothing(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	m.RecordReplication(ctx, 1, 1)
	m.RecordFailure(ctx, "x")
	m.RecordStudy(ctx, 1, false)
}

func TestController_EmptyWindow_RecordsWindowFailure(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	// GIVEN supplies that finish long before the warm-up ends
	m, err := newOtelMetrics()
	require.NoError(t, err)
	tiny := func(workload.Config, *sim.PartitionedRNG) (sim.Supplies, error) {
		return sim.Supplies{
			Assembly:   map[sim.WorkstationID][]sim.Duration{sim.WS1: {1}},
			Inspection: map[sim.ComponentKind][]sim.Duration{sim.C1: {1}},
		}, nil
	}
	c, err := NewController(smallConfig(), WithMetrics(m), WithSupplyGenerator(tiny))
	require.NoError(t, err)

	// WHEN the study runs
	_, err = c.Run(context.Background())
	require.Error(t, err)

	// THEN the failure is attributed to the observation window
	failures := findMetric(collectMetrics(t, reader), "facility.replication.failures")
	require.NotNil(t, failures)
	sum, ok := failures.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	reason, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("reason"))
	require.True(t, ok)
	assert.Equal(t, "window", reason.AsString())
}
