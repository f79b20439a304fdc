/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/blocking.go
*/
package datasource

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/transport"
)

// DataSource is the blocking datasource. It drives the same pipeline as
// ReactiveDataSource and waits for it, bounded by the caller's deadline or
// the configured timeout.
//
// Typed command groups built on a DataSource return slots that are already
// filled.
type DataSource struct {
	r       *ReactiveDataSource
	timeout time.Duration
}

// NewDataSource creates a blocking datasource over a connection pool.
func NewDataSource(opts Options) (*DataSource, error) {
	r, err := NewReactiveDataSource(opts)
	if err != nil {
		return nil, err
	}
	return &DataSource{r: r, timeout: r.opts.Timeout}, nil
}

// Reactive returns the asynchronous datasource sharing the same pool.
func (d *DataSource) Reactive() *ReactiveDataSource {
	return d.r
}

// WithContext returns a view of d whose commands run under ctx.
func (d *DataSource) WithContext(ctx context.Context) *DataSource {
	return &DataSource{r: d.r.WithContext(ctx), timeout: d.timeout}
}

// Close closes the pool.
func (d *DataSource) Close() error {
	return d.r.Close()
}

// Stats reports the pool occupancy.
func (d *DataSource) Stats() transport.PoolStats {
	return d.r.Stats()
}

func (d *DataSource) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *DataSource) wrap(ctx context.Context, bound *ReactiveDataSource) *DataSource {
	return &DataSource{r: bound.WithContext(ctx), timeout: d.timeout}
}

func (d *DataSource) newTx(ctx context.Context, rtx *ReactiveTx) *Tx {
	return &Tx{r: rtx, ds: d, ctx: ctx}
}

func (d *DataSource) submit(cmd Command, decode decodeFunc) *slot {
	ctx, cancel := d.deadline(d.r.ctx)
	defer cancel()

	s := d.r.WithContext(ctx).submit(cmd, decode)
	select {
	case <-s.value.Done():
	case <-ctx.Done():
		s.fail(asTimeout(ctx.Err()))
	}
	return s
}

// WithTransaction runs body inside MULTI/EXEC on one connection and returns
// once the connection was released. See ReactiveDataSource.WithTransaction.
//
// An expired deadline returns an error matching ErrTimeout.
func (d *DataSource) WithTransaction(ctx context.Context, body func(*Tx) error, keys ...string) (*TransactionResult, error) {
	ctx, cancel := d.deadline(ctx)
	defer cancel()

	f := runAttempt(ctx, d.r, keys, nil, func(_ Void, rtx *ReactiveTx) *Future[Void] {
		tx := d.newTx(ctx, rtx)
		return Async(func() (Void, error) {
			return Void{}, body(tx)
		})
	})
	res, err := awaitPipeline(f)
	if err != nil {
		return nil, err
	}
	return res.TransactionResult, nil
}

// WithConnection runs fn with a datasource bound to one connection.
func (d *DataSource) WithConnection(ctx context.Context, fn func(*DataSource) error) error {
	ctx, cancel := d.deadline(ctx)
	defer cancel()

	f := d.r.WithConnection(ctx, func(bound *ReactiveDataSource) *Future[Void] {
		return Async(func() (Void, error) {
			return Void{}, fn(d.wrap(ctx, bound))
		})
	})
	_, err := f.Await(context.Background())
	return asTimeout(err)
}

// awaitPipeline waits for the pipeline without a deadline of its own: the
// pipeline observes the attempt context and always completes after its
// connection was released.
func awaitPipeline[T any](f *Future[*OptimisticLockingTransactionResult[T]]) (*OptimisticLockingTransactionResult[T], error) {
	res, err := f.Await(context.Background())
	if err != nil {
		return nil, asTimeout(err)
	}
	return res, nil
}

// Tx is an open transaction of the blocking datasource. Each command call
// returns once the store acknowledged it; its slot fills when EXEC returns.
type Tx struct {
	r    *ReactiveTx
	ds   *DataSource
	ctx  context.Context
	busy atomic.Bool
}

func (t *Tx) submit(cmd Command, decode decodeFunc) *slot {
	if !t.busy.CompareAndSwap(false, true) {
		return failedSlot(ErrConcurrentUse)
	}
	defer t.busy.Store(false)

	s := t.r.submit(cmd, decode)
	select {
	case <-s.queued.Done():
	case <-t.ctx.Done():
	}
	return s
}

// Discard abandons the transaction. The result is Discarded and every slot
// stays empty.
func (t *Tx) Discard() error {
	if !t.busy.CompareAndSwap(false, true) {
		return ErrConcurrentUse
	}
	defer t.busy.Store(false)

	_, err := t.r.Discard().Await(t.ctx)
	return asTimeout(err)
}

// DataSource returns a pooled datasource sharing the pool the transaction
// was started from. Commands sent through it are not part of the
// transaction.
func (t *Tx) DataSource() *DataSource {
	return &DataSource{r: t.r.DataSource(), timeout: t.ds.timeout}
}
