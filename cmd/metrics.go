package cmd

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// metricsCollector installs an in-process meter provider and dumps what
// it collected on demand.
type metricsCollector struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// newMetricsCollector sets the global meter provider. Call it before
// replication.NewMetricsRecorder.
func newMetricsCollector() *metricsCollector {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return &metricsCollector{reader: reader, provider: provider}
}

// Print writes one line per collected instrument.
func (m *metricsCollector) Print(ctx context.Context, w io.Writer) error {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return err
	}
	fmt.Fprintln(w, "=== Metrics ===")
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			fmt.Fprintf(w, "%-40s %s\n", metric.Name, describe(metric.Data))
		}
	}
	return nil
}

func (m *metricsCollector) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func describe(data metricdata.Aggregation) string {
	switch d := data.(type) {
	case metricdata.Sum[int64]:
		var total int64
		for _, dp := range d.DataPoints {
			total += dp.Value
		}
		return fmt.Sprintf("sum=%d", total)
	case metricdata.Histogram[float64]:
		var count uint64
		var sum float64
		for _, dp := range d.DataPoints {
			count += dp.Count
			sum += dp.Sum
		}
		return histogramLine(count, sum)
	case metricdata.Histogram[int64]:
		var count uint64
		var sum int64
		for _, dp := range d.DataPoints {
			count += dp.Count
			sum += dp.Sum
		}
		return histogramLine(count, float64(sum))
	}
	return fmt.Sprintf("%T", data)
}

func histogramLine(count uint64, sum float64) string {
	if count == 0 {
		return "count=0"
	}
	return fmt.Sprintf("count=%d mean=%.2f", count, sum/float64(count))
}
