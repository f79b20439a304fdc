/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/optimistic.go
*/
package datasource

import "context"

// WithOptimisticTransactionAsync runs a check-then-act transaction.
//
// keys are watched first. pre then runs on the same connection with a
// datasource bound to it and produces a value; its commands execute
// immediately. body receives that value and either queues commands or
// calls Discard. A write to a watched key by anyone else between WATCH and
// EXEC makes the result Discarded; the pre value is still returned.
//
// A failure in pre fails the attempt before MULTI is sent.
func WithOptimisticTransactionAsync[T any](
	ctx context.Context,
	rds *ReactiveDataSource,
	pre func(*ReactiveDataSource) *Future[T],
	body func(T, *ReactiveTx) *Future[Void],
	keys ...string,
) *Future[*OptimisticLockingTransactionResult[T]] {
	if pre == nil {
		pre = func(*ReactiveDataSource) *Future[T] { return nil }
	}
	return runAttempt(ctx, rds, keys, pre, body)
}

// WithOptimisticTransaction is the blocking form of
// WithOptimisticTransactionAsync.
func WithOptimisticTransaction[T any](
	ctx context.Context,
	ds *DataSource,
	pre func(*DataSource) (T, error),
	body func(T, *Tx) error,
	keys ...string,
) (*OptimisticLockingTransactionResult[T], error) {
	ctx, cancel := ds.deadline(ctx)
	defer cancel()

	f := runAttempt(ctx, ds.r, keys,
		func(bound *ReactiveDataSource) *Future[T] {
			return Async(func() (T, error) {
				return pre(ds.wrap(ctx, bound))
			})
		},
		func(v T, rtx *ReactiveTx) *Future[Void] {
			tx := ds.newTx(ctx, rtx)
			return Async(func() (Void, error) {
				return Void{}, body(v, tx)
			})
		})
	return awaitPipeline(f)
}
