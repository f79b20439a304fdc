/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/future.go
*/
package datasource

import (
	"context"
	"sync"
)

// Void is the value of futures that only signal completion.
type Void struct{}

// Future is the eventual result of an asynchronous operation. It completes
// exactly once, with a value or an error.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns a pending future. Complete it with Complete or Fail.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future already completed with v.
func Completed[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v)
	return f
}

// Failed returns a future already failed with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Async runs fn on a new goroutine and returns a future of its result.
func Async[T any](fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, err := fn()
		f.settle(v, err)
	}()
	return f
}

// Complete completes f with v. It reports false when f was already done.
func (f *Future[T]) Complete(v T) bool {
	return f.settle(v, nil)
}

// Fail completes f with err. It reports false when f was already done.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed when f completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether f has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until f completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then chains fn after f. An error from f skips fn and is passed on.
func Then[A, B any](f *Future[A], fn func(A) *Future[B]) *Future[B] {
	out := NewFuture[B]()
	go func() {
		<-f.done
		if f.err != nil {
			out.Fail(f.err)
			return
		}
		next := fn(f.val)
		if next == nil {
			var zero B
			out.Complete(zero)
			return
		}
		<-next.done
		out.settle(next.val, next.err)
	}()
	return out
}

// Map transforms the value of f.
func Map[A, B any](f *Future[A], fn func(A) (B, error)) *Future[B] {
	return Then(f, func(a A) *Future[B] {
		b, err := fn(a)
		if err != nil {
			return Failed[B](err)
		}
		return Completed(b)
	})
}

// Ignore drops the value of f, keeping its error.
func Ignore[T any](f *Future[T]) *Future[Void] {
	return Map(f, func(T) (Void, error) { return Void{}, nil })
}

// All completes when every future has completed. It fails with the first
// error in argument order.
func All(fs ...*Future[Void]) *Future[Void] {
	out := NewFuture[Void]()
	go func() {
		var first error
		for _, f := range fs {
			if f == nil {
				continue
			}
			<-f.done
			if f.err != nil && first == nil {
				first = f.err
			}
		}
		out.settle(Void{}, first)
	}()
	return out
}
