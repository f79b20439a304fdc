package datasource

import (
	"context"
	"testing"

	"github.com/akashmaji946/go-redis-tx/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAttemptsAreMeasuredAndTraced(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	recorder := tracetest.NewSpanRecorder()

	opts := testOptions(t, startServer(t))
	opts.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	opts.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ds := newBlocking(t, opts)
	ctx := context.Background()

	_, err := ds.WithTransaction(ctx, func(tx *Tx) error {
		Values[string](tx).Set("k", "v")
		Lists[string](tx).LPop("k")
		return nil
	})
	require.NoError(t, err)

	_, err = ds.WithTransaction(ctx, func(tx *Tx) error {
		Values[string](tx.DataSource()).Set("k", "other")
		Values[string](tx).Set("k", "mine")
		return nil
	}, "k")
	require.NoError(t, err)

	_, err = ds.WithTransaction(ctx, func(tx *Tx) error {
		Execute(tx, "NOSUCHCMD")
		return nil
	})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}

	attempts, ok := byName["goredis.tx.attempts"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range attempts.DataPoints {
		v, _ := dp.Attributes.Value("goredis.tx.outcome")
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(1), byOutcome[metrics.OutcomeCommitted])
	assert.Equal(t, int64(1), byOutcome[metrics.OutcomeCAS])
	assert.Equal(t, int64(1), byOutcome[metrics.OutcomeError])

	late, ok := byName["goredis.tx.late_failures"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, late.DataPoints, 1)
	assert.Equal(t, int64(1), late.DataPoints[0].Value)

	_, ok = byName["goredis.pool.open"].Data.(metricdata.Gauge[int64])
	assert.True(t, ok)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	outcomes := []string{}
	for _, s := range spans {
		assert.Equal(t, "redis.transaction", s.Name())
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("goredis.tx.outcome") {
				outcomes = append(outcomes, kv.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{metrics.OutcomeCommitted, metrics.OutcomeCAS, metrics.OutcomeError}, outcomes)
}
