package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestLoginMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewLoginMetrics(mp)
	require.NoError(t, err)
	ctx := context.Background()
	m.LoginOutcome(ctx, "token_issued")
	m.LoginOutcome(ctx, "token_issued")
	m.LoginOutcome(ctx, "rate_limited")
	m.RiskScore(ctx, 40, false)
	m.RiskScore(ctx, 110, true)

	got := collect(t, reader)

	sum, ok := got["auth.login.outcomes"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		counts[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"token_issued": 2, "rate_limited": 1}, counts)

	hist, ok := got["auth.risk.score"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	assert.EqualValues(t, 2, total)
}
