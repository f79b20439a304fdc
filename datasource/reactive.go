/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/reactive.go
*/
package datasource

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/metrics"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/akashmaji946/go-redis-tx/internal/transport"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReactiveDataSource is the asynchronous datasource. Every call returns at
// once; results arrive through futures and slots.
//
// A pooled ReactiveDataSource runs each command on any pooled connection.
// The datasources handed to WithConnection callbacks and to the pre phase of
// optimistic transactions are bound to one connection and run their commands
// strictly in submission order.
type ReactiveDataSource struct {
	pool    *transport.Pool
	sess    *session
	ctx     context.Context
	opts    Options
	logger  *zap.Logger
	metrics *metrics.TxMetrics
	tracer  trace.Tracer
	poolReg metric.Registration

	// pre makes command failures surface as transaction failures.
	pre    bool
	owner  bool
	closed *atomic.Bool
}

// NewReactiveDataSource creates a datasource over a connection pool. No
// connection is opened until the first command.
func NewReactiveDataSource(opts Options) (*ReactiveDataSource, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.Named("datasource")

	dial := func(ctx context.Context) (*transport.Conn, error) {
		return transport.Dial(ctx, opts.Addr, transport.DialOptions{
			Username:    opts.Username,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: opts.DialTimeout,
		})
	}
	pool := transport.NewPool(opts.PoolSize, dial, logger)

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	reg, err := metrics.RegisterPool(mp, func() (int64, int64) {
		st := pool.Stats()
		return st.Open, st.Idle
	})
	if err != nil {
		_ = pool.Close()
		return nil, errors.Wrap(err, "register pool metrics")
	}

	logger.Debug("datasource created",
		zap.String("addr", opts.Addr),
		zap.Int("pool_size", opts.PoolSize),
		zap.Duration("timeout", opts.Timeout))

	return &ReactiveDataSource{
		pool:    pool,
		ctx:     context.Background(),
		opts:    opts,
		logger:  logger,
		metrics: metrics.NewTxMetrics(mp, logger),
		tracer:  tp.Tracer(metrics.InstrumentationName),
		poolReg: reg,
		owner:   true,
		closed:  &atomic.Bool{},
	}, nil
}

// WithContext returns a view of r whose commands run under ctx.
func (r *ReactiveDataSource) WithContext(ctx context.Context) *ReactiveDataSource {
	c := *r
	c.ctx = ctx
	c.owner = false
	return &c
}

// Close closes the pool. Connections in use are closed when released.
// Views and bound datasources do not own the pool and ignore Close.
func (r *ReactiveDataSource) Close() error {
	if !r.owner || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if r.poolReg != nil {
		if err := r.poolReg.Unregister(); err != nil {
			r.logger.Warn("unregister pool metrics", zap.Error(err))
		}
	}
	r.logger.Debug("datasource closed")
	return r.pool.Close()
}

// Stats reports the pool occupancy.
func (r *ReactiveDataSource) Stats() transport.PoolStats {
	return r.pool.Stats()
}

// bind returns a datasource that runs on sess.
func (r *ReactiveDataSource) bind(ctx context.Context, sess *session, pre bool) *ReactiveDataSource {
	c := *r
	c.ctx = ctx
	c.sess = sess
	c.pre = pre
	c.owner = false
	return &c
}

// unbound returns a pooled view of r, so that commands sent through it stay
// outside a transaction open on r's connection.
func (r *ReactiveDataSource) unbound() *ReactiveDataSource {
	if r.sess == nil && !r.pre {
		return r
	}
	c := *r
	c.sess = nil
	c.pre = false
	c.owner = false
	return &c
}

func (r *ReactiveDataSource) submit(cmd Command, decode decodeFunc) *slot {
	if err := cmd.validate(); err != nil {
		if r.pre {
			err = &TransactionError{Kind: ClientFailure, Command: cmd.Name, Err: err}
		}
		return failedSlot(err)
	}
	if r.closed.Load() {
		return failedSlot(ErrClosed)
	}

	s := newSlot(decode)
	if r.sess != nil {
		r.sess.send(func(v resp.Value, err error) { r.deliver(cmd, s, v, err) }, cmd.wire()...)
		return s
	}

	go func() {
		conn, err := r.pool.Acquire(r.ctx)
		if err != nil {
			s.fail(errors.Wrap(err, "acquire connection"))
			return
		}
		v, err := conn.Do(r.ctx, cmd.wire()...)
		r.pool.Release(conn)
		r.deliver(cmd, s, v, err)
	}()
	return s
}

func (r *ReactiveDataSource) deliver(cmd Command, s *slot, v resp.Value, err error) {
	if err != nil {
		s.fail(err)
		return
	}
	s.queued.Complete(Void{})
	if r.pre && v.IsError() {
		s.value.Fail(&TransactionError{Kind: EarlyFailure, Command: cmd.Name, Err: &RedisError{Msg: v.Err}})
		return
	}
	_, _ = s.resolve(v)
}

// openSession binds a connection to one unit of work. A bound datasource
// keeps using its own connection.
func (r *ReactiveDataSource) openSession(ctx context.Context, logger *zap.Logger) (*session, func(), error) {
	if r.closed.Load() {
		return nil, nil, ErrClosed
	}
	if r.sess != nil {
		sess := r.sess
		return sess, func() {
			// the attempt context may be gone; the connection outlives it
			resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transport.DefaultResetTimeout)
			defer cancel()
			if err := sess.reset(resetCtx); err != nil {
				logger.Warn("reset of bound connection failed", zap.Error(err))
			}
		}, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "acquire connection")
	}
	sess := newSession(ctx, conn, logger)
	return sess, func() {
		sess.close()
		r.pool.Release(conn)
	}, nil
}

// WithConnection runs fn with a datasource bound to one connection. The
// connection is released when the future returned by fn completes.
func (r *ReactiveDataSource) WithConnection(ctx context.Context, fn func(*ReactiveDataSource) *Future[Void]) *Future[Void] {
	return Async(func() (Void, error) {
		sess, release, err := r.openSession(ctx, r.logger)
		if err != nil {
			return Void{}, err
		}
		defer release()
		return Void{}, awaitBody(ctx, fn(r.bind(ctx, sess, false)))
	})
}

// WithTransaction runs body inside MULTI/EXEC on one connection. When keys
// are given they are watched first and a concurrent modification makes the
// result Discarded.
//
// Client and early failures fail the returned future with a
// *TransactionError. Failures at EXEC time are kept inline in the result.
func (r *ReactiveDataSource) WithTransaction(ctx context.Context, body func(*ReactiveTx) *Future[Void], keys ...string) *Future[*TransactionResult] {
	f := runAttempt(ctx, r, keys, nil, func(_ Void, tx *ReactiveTx) *Future[Void] {
		return body(tx)
	})
	return Map(f, func(o *OptimisticLockingTransactionResult[Void]) (*TransactionResult, error) {
		return o.TransactionResult, nil
	})
}

// runAttempt is the single transaction pipeline: acquire, WATCH, pre phase,
// body, EXEC or DISCARD, decode, release. The returned future completes
// after the connection was released.
func runAttempt[T any](
	ctx context.Context,
	r *ReactiveDataSource,
	keys []string,
	pre func(*ReactiveDataSource) *Future[T],
	body func(T, *ReactiveTx) *Future[Void],
) *Future[*OptimisticLockingTransactionResult[T]] {
	out := NewFuture[*OptimisticLockingTransactionResult[T]]()
	go func() {
		start := time.Now()
		id := uuid.NewString()
		logger := r.logger.With(zap.String("attempt", id))

		ctx, span := r.tracer.Start(ctx, "redis.transaction", trace.WithAttributes(
			attribute.String("goredis.tx.attempt", id),
			attribute.Int("goredis.tx.watched_keys", len(keys)),
			attribute.Bool("goredis.tx.optimistic", pre != nil),
		))

		res, ctrl, err := attempt(ctx, r, id, logger, keys, pre, body)

		outcome, queued, late := metrics.OutcomeError, 0, 0
		if ctrl != nil {
			var st txState
			st, queued, late = ctrl.outcome()
			switch st {
			case stateCommitted:
				outcome = metrics.OutcomeCommitted
			case stateAbortedByCAS:
				outcome = metrics.OutcomeCAS
			case stateAbortedByDiscard:
				outcome = metrics.OutcomeDiscarded
			}
		}
		elapsed := time.Since(start)
		r.metrics.RecordAttempt(context.WithoutCancel(ctx), outcome, elapsed, queued, late)

		span.SetAttributes(
			attribute.String("goredis.tx.outcome", outcome),
			attribute.Int("goredis.tx.queued_commands", queued),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Debug("transaction failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		} else {
			logger.Debug("transaction finished", zap.String("outcome", outcome), zap.Duration("elapsed", elapsed))
		}
		span.End()

		if err != nil {
			out.Fail(err)
			return
		}
		out.Complete(res)
	}()
	return out
}

func attempt[T any](
	ctx context.Context,
	r *ReactiveDataSource,
	id string,
	logger *zap.Logger,
	keys []string,
	pre func(*ReactiveDataSource) *Future[T],
	body func(T, *ReactiveTx) *Future[Void],
) (*OptimisticLockingTransactionResult[T], *controller, error) {
	sess, release, err := r.openSession(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	ctrl := newController(id, sess, logger)
	if len(keys) > 0 {
		if err := ctrl.watch(ctx, keys); err != nil {
			ctrl.close()
			return nil, ctrl, err
		}
	}

	var v T
	if pre != nil {
		f := pre(r.bind(ctx, sess, true))
		if f != nil {
			v, err = f.Await(ctx)
		}
		if err == nil {
			// a pre phase that did not wait for its reads still runs first
			err = sess.drain(ctx)
		}
		if err != nil {
			ctrl.close()
			return nil, ctrl, err
		}
	}

	ctrl.open()
	tx := &ReactiveTx{c: ctrl, ds: r.unbound()}
	bodyErr := awaitBody(ctx, body(v, tx))

	res, err := ctrl.finish(ctx, bodyErr)
	if err != nil {
		return nil, ctrl, err
	}
	return &OptimisticLockingTransactionResult[T]{
		TransactionResult: res,
		pre:               v,
		empty:             ctrl.isEmpty(),
	}, ctrl, nil
}

// awaitBody waits for a body future. A nil future counts as completed.
func awaitBody(ctx context.Context, f *Future[Void]) error {
	if f == nil {
		return nil
	}
	_, err := f.Await(ctx)
	return err
}

// ReactiveTx is an open transaction of the reactive datasource. Commands
// submitted to it are queued; their slots fill when EXEC returns.
type ReactiveTx struct {
	c  *controller
	ds *ReactiveDataSource
}

func (t *ReactiveTx) submit(cmd Command, decode decodeFunc) *slot {
	return t.c.enqueue(cmd, decode)
}

// Discard abandons the transaction. The result is Discarded and every slot
// stays empty.
func (t *ReactiveTx) Discard() *Future[Void] {
	return t.c.discard()
}

// DataSource returns a pooled datasource sharing the pool the transaction
// was started from. Commands sent through it are not part of the
// transaction.
func (t *ReactiveTx) DataSource() *ReactiveDataSource {
	return t.ds
}

