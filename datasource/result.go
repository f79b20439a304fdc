/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/result.go
*/
package datasource

import "github.com/pkg/errors"

// TransactionResult is the outcome of a transaction that reached the store.
//
// A discarded result has no values: the body called Discard, or a watched
// key was modified and EXEC returned a null reply. Otherwise it holds one
// entry per queued command in call order. An entry is nil for commands
// whose reply carries no value and the *RedisError for a command that
// failed at EXEC time.
type TransactionResult struct {
	discarded bool
	values    []any
	errs      []error
}

// Discarded reports whether the transaction was not applied.
func (r *TransactionResult) Discarded() bool {
	return r.discarded
}

// Size returns the number of entries.
func (r *TransactionResult) Size() int {
	return len(r.values)
}

// Get returns entry i. It panics when i is out of range.
func (r *TransactionResult) Get(i int) any {
	return r.values[i]
}

// Err returns the failure of entry i, nil when the command succeeded.
func (r *TransactionResult) Err(i int) error {
	return r.errs[i]
}

// Results returns a copy of all entries.
func (r *TransactionResult) Results() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// ResultAs returns entry i as T. A failed command returns its error.
func ResultAs[T any](r *TransactionResult, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(r.values) {
		return zero, errors.Errorf("result index %d out of range [0,%d)", i, len(r.values))
	}
	if r.errs[i] != nil {
		return zero, r.errs[i]
	}
	if r.values[i] == nil {
		return zero, nil
	}
	v, ok := r.values[i].(T)
	if !ok {
		return zero, errors.Errorf("result %d is %T", i, r.values[i])
	}
	return v, nil
}

// OptimisticLockingTransactionResult is a transaction result together with
// the value computed before the transaction started.
type OptimisticLockingTransactionResult[T any] struct {
	*TransactionResult
	pre   T
	empty bool
}

// PreTransactionResult returns the value produced by the pre phase.
func (r *OptimisticLockingTransactionResult[T]) PreTransactionResult() T {
	return r.pre
}

// IsEmpty reports whether the body discarded before queuing any command.
func (r *OptimisticLockingTransactionResult[T]) IsEmpty() bool {
	return r.empty
}
