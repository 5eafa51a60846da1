// Package metrics owns the OpenTelemetry instruments that describe monitor
// runs and the Prometheus-backed provider that exports them.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides histogram buckets in seconds sized for a run that
// downloads two feeds and commits a snapshot.
var DefaultBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120} //nolint: gochecknoglobals

const meterName = "bountywatch"

const (
	// ResultSuccess labels runs that completed every step.
	ResultSuccess = "success"
	// ResultFailure labels runs that stopped at a failing step.
	ResultFailure = "failure"
)

// NewPrometheusProvider creates a MeterProvider whose readings are collected
// by reg, so they appear on the promhttp handler serving that registerer.
func NewPrometheusProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Recorder records the outcome of monitor runs. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	runs      metric.Int64Counter
	newAssets metric.Int64Counter
	total     metric.Int64Gauge
	duration  metric.Float64Histogram
}

// NewRecorder creates the run instruments on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(meterName)

	runs, err := meter.Int64Counter("bountywatch_runs",
		metric.WithDescription("Number of monitor runs by result."))
	if err != nil {
		return nil, fmt.Errorf("could not create runs counter: %w", err)
	}
	newAssets, err := meter.Int64Counter("bountywatch_assets_new",
		metric.WithDescription("Number of newly discovered assets."))
	if err != nil {
		return nil, fmt.Errorf("could not create new assets counter: %w", err)
	}
	total, err := meter.Int64Gauge("bountywatch_assets_total",
		metric.WithDescription("Number of assets in the last persisted snapshot."))
	if err != nil {
		return nil, fmt.Errorf("could not create total assets gauge: %w", err)
	}
	duration, err := meter.Float64Histogram("bountywatch_run_duration",
		metric.WithDescription("Duration of monitor runs."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create run duration histogram: %w", err)
	}

	return &Recorder{runs: runs, newAssets: newAssets, total: total, duration: duration}, nil
}

// RunSucceeded records a completed run.
func (r *Recorder) RunSucceeded(ctx context.Context, newCount, total int, took time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", ResultSuccess))
	r.runs.Add(ctx, 1, attrs)
	r.newAssets.Add(ctx, int64(newCount))
	r.total.Record(ctx, int64(total))
	r.duration.Record(ctx, took.Seconds(), attrs)
}

// RunFailed records a run that returned an error.
func (r *Recorder) RunFailed(ctx context.Context, took time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", ResultFailure))
	r.runs.Add(ctx, 1, attrs)
	r.duration.Record(ctx, took.Seconds(), attrs)
}
