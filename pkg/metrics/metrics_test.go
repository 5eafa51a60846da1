package metrics_test

import (
	"bountywatch/pkg/metrics"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader sdkmetric.Reader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := metrics.NewRecorder(mp)
	require.NoError(t, err)

	ctx := context.Background()
	rec.RunSucceeded(ctx, 3, 10, 2*time.Second)
	rec.RunSucceeded(ctx, 0, 10, time.Second)
	rec.RunFailed(ctx, time.Second)

	got := collect(t, reader)

	runs, ok := got["bountywatch_runs"].(metricdata.Sum[int64])
	require.True(t, ok)
	byResult := map[string]int64{}
	for _, dp := range runs.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("result"))
		byResult[v.AsString()] = dp.Value
	}
	require.Equal(t, map[string]int64{metrics.ResultSuccess: 2, metrics.ResultFailure: 1}, byResult)

	newAssets, ok := got["bountywatch_assets_new"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, newAssets.DataPoints, 1)
	require.EqualValues(t, 3, newAssets.DataPoints[0].Value)

	total, ok := got["bountywatch_assets_total"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	require.EqualValues(t, 10, total.DataPoints[0].Value)

	duration, ok := got["bountywatch_run_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	require.EqualValues(t, 3, count)
}

func TestRecorder_Nil(t *testing.T) {
	var rec *metrics.Recorder
	require.NotPanics(t, func() {
		rec.RunSucceeded(context.Background(), 1, 1, time.Second)
		rec.RunFailed(context.Background(), time.Second)
	})
}

func TestNewPrometheusProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewPrometheusProvider(reg)
	require.NoError(t, err)

	rec, err := metrics.NewRecorder(mp)
	require.NoError(t, err)
	rec.RunSucceeded(context.Background(), 1, 5, time.Second)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint: noctx
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		require.NotContains(t, f.GetName(), ".")
		names[f.GetName()] = true
	}
	require.True(t, names["bountywatch_runs_total"])
	require.True(t, names["bountywatch_assets_new_total"])
	require.True(t, names["bountywatch_assets_total"])
	require.True(t, names["bountywatch_run_duration_seconds"])
}
