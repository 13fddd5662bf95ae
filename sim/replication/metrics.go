package replication

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records replication-study metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordReplication records one finished replication and its simulated span.
	RecordReplication(ctx context.Context, elapsedMinutes float64, products int)

	// RecordFailure records a replication that aborted the study.
	RecordFailure(ctx context.Context, reason string)

	// RecordStudy records the end of a study.
	RecordStudy(ctx context.Context, replications int, converged bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	replications metric.Int64Counter
	elapsed      metric.Float64Histogram
	products     metric.Int64Histogram
	failures     metric.Int64Counter
	studies      metric.Int64Counter
	studySize    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("facility-sim")

	replications, err := meter.Int64Counter("facility.replications",
		metric.WithDescription("Number of finished replications"),
	)
	if err != nil {
		return nil, err
	}

	elapsed, err := meter.Float64Histogram("facility.replication.elapsed_minutes",
		metric.WithDescription("Simulated time covered by a replication"),
		metric.WithUnit("min"),
	)
	if err != nil {
		return nil, err
	}

	products, err := meter.Int64Histogram("facility.replication.products",
		metric.WithDescription("Products assembled in a replication"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("facility.replication.failures",
		metric.WithDescription("Number of replications that aborted a study"),
	)
	if err != nil {
		return nil, err
	}

	studies, err := meter.Int64Counter("facility.studies",
		metric.WithDescription("Number of completed replication studies"),
	)
	if err != nil {
		return nil, err
	}

	studySize, err := meter.Int64Histogram("facility.study.replications",
		metric.WithDescription("Replications needed by a study"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		replications: replications,
		elapsed:      elapsed,
		products:     products,
		failures:     failures,
		studies:      studies,
		studySize:    studySize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If initialization fails it returns NoopMetrics{}.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		logrus.Warnf("metrics initialization failed, using no-op recorder: %v", err)
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordReplication(ctx context.Context, elapsedMinutes float64, products int) {
	m.replications.Add(ctx, 1)
	m.elapsed.Record(ctx, elapsedMinutes)
	m.products.Record(ctx, int64(products))
}

func (m *otelMetrics) RecordFailure(ctx context.Context, reason string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *otelMetrics) RecordStudy(ctx context.Context, replications int, converged bool) {
	attrs := metric.WithAttributes(attribute.Bool("converged", converged))
	m.studies.Add(ctx, 1, attrs)
	m.studySize.Record(ctx, int64(replications), attrs)
}

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordReplication(_ context.Context, _ float64, _ int) {}
func (NoopMetrics) RecordFailure(_ context.Context, _ string)             {}
func (NoopMetrics) RecordStudy(_ context.Context, _ int, _ bool)          {}
