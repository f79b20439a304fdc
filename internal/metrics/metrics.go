/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/metrics/metrics.go
*/

// Package metrics holds the OpenTelemetry instruments of the datasource and
// the Prometheus wiring used by the command-line tools.
package metrics

import (
	"context"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InstrumentationName is the meter and tracer name used by the datasource.
const InstrumentationName = "github.com/akashmaji946/go-redis-tx/datasource"

// Attempt outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeCAS       = "aborted_cas"
	OutcomeDiscarded = "aborted_discard"
	OutcomeError     = "aborted_error"
)

// TxMetrics records transaction attempts. A nil *TxMetrics records nothing.
type TxMetrics struct {
	attempts     metric.Int64Counter
	duration     metric.Int64Histogram
	queued       metric.Int64Histogram
	lateFailures metric.Int64Counter
}

// NewTxMetrics creates the instruments on mp, or on the global provider when
// mp is nil. Instrument errors are logged and leave that instrument unset.
func NewTxMetrics(mp metric.MeterProvider, logger *zap.Logger) *TxMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(InstrumentationName)
	m := &TxMetrics{}
	var err error

	m.attempts, err = meter.Int64Counter(
		"goredis.tx.attempts",
		metric.WithDescription("Transaction attempts by outcome"),
	)
	logMetricInitError(logger, "goredis.tx.attempts", err)

	m.duration, err = meter.Int64Histogram(
		"goredis.tx.duration_ms",
		metric.WithDescription("Time from connection acquisition to the end of an attempt"),
		metric.WithUnit("ms"),
	)
	logMetricInitError(logger, "goredis.tx.duration_ms", err)

	m.queued, err = meter.Int64Histogram(
		"goredis.tx.queued_commands",
		metric.WithDescription("Commands queued per attempt"),
	)
	logMetricInitError(logger, "goredis.tx.queued_commands", err)

	m.lateFailures, err = meter.Int64Counter(
		"goredis.tx.late_failures",
		metric.WithDescription("Commands that failed while EXEC ran"),
	)
	logMetricInitError(logger, "goredis.tx.late_failures", err)

	return m
}

// RecordAttempt records one finished attempt.
func (m *TxMetrics) RecordAttempt(ctx context.Context, outcome string, duration time.Duration, queued, lateFailures int) {
	if m == nil {
		return
	}
	ctx = metricContext(ctx)
	attrs := metric.WithAttributes(attribute.String("goredis.tx.outcome", outcome))
	if m.attempts != nil {
		m.attempts.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Milliseconds(), attrs)
	}
	if m.queued != nil {
		m.queued.Record(ctx, int64(queued), attrs)
	}
	if m.lateFailures != nil && lateFailures > 0 {
		m.lateFailures.Add(ctx, int64(lateFailures))
	}
}

// PoolStatsFunc reports open and idle connection counts.
type PoolStatsFunc func() (open, idle int64)

// RegisterPool exposes pool occupancy as observable gauges. Unregister the
// returned registration when the pool is closed.
func RegisterPool(mp metric.MeterProvider, stats PoolStatsFunc) (metric.Registration, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(InstrumentationName)
	open, err := meter.Int64ObservableGauge("goredis.pool.open",
		metric.WithDescription("Open pooled connections"))
	if err != nil {
		return nil, err
	}
	idle, err := meter.Int64ObservableGauge("goredis.pool.idle",
		metric.WithDescription("Idle pooled connections"))
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		nOpen, nIdle := stats()
		o.ObserveInt64(open, nOpen)
		o.ObserveInt64(idle, nIdle)
		return nil
	}, open, idle)
}

// ServerInstrumentationName is the meter name used by the memstore server.
const ServerInstrumentationName = "github.com/akashmaji946/go-redis-tx/internal/server"

// RegisterServer exports the server counters reported by INFO.
func RegisterServer(mp metric.MeterProvider, stats *common.GeneralStats, clients func() int64) (metric.Registration, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(ServerInstrumentationName)

	counters := []struct {
		name, desc string
		load       func() int64
	}{
		{"goredis.server.connections", "Connections accepted", stats.TotalConnectionsReceived.Load},
		{"goredis.server.commands", "Commands processed", stats.TotalCommandsExecuted.Load},
		{"goredis.server.txn_executed", "Transactions executed by EXEC", stats.TotalTxnExecuted.Load},
		{"goredis.server.txn_aborted", "Transactions aborted by EXEC, DISCARD or a touched watch", stats.TotalTxnAborted.Load},
		{"goredis.server.expired_keys", "Keys removed on expiry", stats.TotalExpiredKeys.Load},
	}
	instruments := make([]metric.Observable, 0, len(counters)+1)
	observed := make([]metric.Int64ObservableCounter, 0, len(counters))
	for _, c := range counters {
		inst, err := meter.Int64ObservableCounter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		observed = append(observed, inst)
		instruments = append(instruments, inst)
	}
	connected, err := meter.Int64ObservableGauge("goredis.server.clients",
		metric.WithDescription("Connected clients"))
	if err != nil {
		return nil, err
	}
	instruments = append(instruments, connected)

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for i, c := range counters {
			o.ObserveInt64(observed[i], c.load())
		}
		o.ObserveInt64(connected, clients())
		return nil
	}, instruments...)
}

func metricContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func logMetricInitError(logger *zap.Logger, name string, err error) {
	if err == nil || logger == nil {
		return
	}
	logger.Warn("telemetry.metric.init_failed", zap.String("name", name), zap.Error(err))
}
