package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordAttempt(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewTxMetrics(mp, zap.NewNop())

	ctx := context.Background()
	m.RecordAttempt(ctx, OutcomeCommitted, 3*time.Millisecond, 2, 1)
	m.RecordAttempt(ctx, OutcomeCommitted, time.Millisecond, 1, 0)
	m.RecordAttempt(ctx, OutcomeCAS, time.Millisecond, 0, 0)

	got := collect(t, reader)

	attempts, ok := got["goredis.tx.attempts"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range attempts.DataPoints {
		v, _ := dp.Attributes.Value("goredis.tx.outcome")
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), byOutcome[OutcomeCommitted])
	assert.Equal(t, int64(1), byOutcome[OutcomeCAS])

	late, ok := got["goredis.tx.late_failures"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, late.DataPoints, 1)
	assert.Equal(t, int64(1), late.DataPoints[0].Value)

	_, ok = got["goredis.tx.duration_ms"].Data.(metricdata.Histogram[int64])
	assert.True(t, ok)
}

func TestNilTxMetrics(t *testing.T) {
	var m *TxMetrics
	assert.NotPanics(t, func() {
		m.RecordAttempt(context.Background(), OutcomeError, time.Second, 1, 1)
	})
}

func TestRegisterPool(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	reg, err := RegisterPool(mp, func() (int64, int64) { return 3, 1 })
	require.NoError(t, err)
	defer reg.Unregister()

	got := collect(t, reader)
	open, ok := got["goredis.pool.open"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, open.DataPoints, 1)
	assert.Equal(t, int64(3), open.DataPoints[0].Value)

	idle, ok := got["goredis.pool.idle"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), idle.DataPoints[0].Value)
}

func TestRegisterServer(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	var stats common.GeneralStats
	stats.TotalCommandsExecuted.Add(5)
	stats.TotalTxnAborted.Add(2)
	reg, err := RegisterServer(mp, &stats, func() int64 { return 4 })
	require.NoError(t, err)
	defer reg.Unregister()

	got := collect(t, reader)
	commands, ok := got["goredis.server.commands"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, commands.DataPoints, 1)
	assert.Equal(t, int64(5), commands.DataPoints[0].Value)
	assert.True(t, commands.IsMonotonic)

	aborted, ok := got["goredis.server.txn_aborted"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), aborted.DataPoints[0].Value)

	clients, ok := got["goredis.server.clients"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(4), clients.DataPoints[0].Value)
}

func TestSetupDisabled(t *testing.T) {
	tel, shutdown, err := Setup(config.MetricsConfig{}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, tel.Addr)
	assert.NotNil(t, tel.MeterProvider)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupServesPrometheus(t *testing.T) {
	tel, shutdown, err := Setup(config.MetricsConfig{Enabled: true, Listen: "127.0.0.1:0"}, "test", zap.NewNop())
	require.NoError(t, err)
	defer shutdown(context.Background())

	m := NewTxMetrics(tel.MeterProvider, zap.NewNop())
	m.RecordAttempt(context.Background(), OutcomeCommitted, time.Millisecond, 1, 0)

	res, err := http.Get("http://" + tel.Addr + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "goredis")
}
