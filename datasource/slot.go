/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/slot.go
*/
package datasource

import (
	"context"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
)

// decodeFunc converts a reply into the value stored in a slot.
type decodeFunc func(resp.Value) (any, error)

// slot is the single-assignment cell behind a Slot. queued completes when
// the store acknowledged the command (immediately executed commands: when
// the reply arrived); value completes with the decoded reply or its error.
type slot struct {
	queued *Future[Void]
	value  *Future[any]
	decode decodeFunc
}

func newSlot(decode decodeFunc) *slot {
	return &slot{
		queued: NewFuture[Void](),
		value:  NewFuture[any](),
		decode: decode,
	}
}

// failedSlot returns a slot whose acknowledgement and value both failed.
func failedSlot(err error) *slot {
	s := newSlot(nil)
	s.fail(err)
	return s
}

// resolve stores the reply. Error replies become *RedisError; decode errors
// are stored as the slot error. It returns what was stored.
func (s *slot) resolve(v resp.Value) (any, error) {
	if v.IsError() {
		err := &RedisError{Msg: v.Err}
		s.value.Fail(err)
		return nil, err
	}
	var (
		x   any
		err error
	)
	if s.decode != nil {
		x, err = s.decode(v)
	}
	if err != nil {
		s.value.Fail(err)
		return nil, err
	}
	s.value.Complete(x)
	return x, nil
}

// fail fails whatever is not complete yet.
func (s *slot) fail(err error) {
	s.queued.Fail(err)
	s.value.Fail(err)
}

// abandon leaves the slot permanently empty.
func (s *slot) abandon() {
	s.value.Fail(ErrSlotEmpty)
}

// Slot is the typed, read-only view of one command result. Inside a
// transaction it fills when EXEC returns; outside it fills when the reply
// arrives.
type Slot[T any] struct {
	s *slot
}

func newTypedSlot[T any](s *slot) *Slot[T] {
	return &Slot[T]{s: s}
}

// Queued completes once the store accepted the command. It fails with the
// client or early failure that prevented queuing.
func (s *Slot[T]) Queued() *Future[Void] {
	return s.s.queued
}

// Result returns the value without blocking. It returns ErrSlotEmpty while
// the slot is not filled, and forever when the transaction was aborted.
func (s *Slot[T]) Result() (T, error) {
	if s.s.value.IsDone() {
		return cast[T](s.s.value.val, s.s.value.err)
	}
	var zero T
	if s.s.queued.IsDone() && s.s.queued.err != nil {
		return zero, s.s.queued.err
	}
	return zero, ErrSlotEmpty
}

// Err returns the failure of the command, nil while it is pending or when
// it succeeded.
func (s *Slot[T]) Err() error {
	_, err := s.Result()
	if err == ErrSlotEmpty {
		return nil
	}
	return err
}

// Await blocks until the slot is filled or ctx is done.
func (s *Slot[T]) Await(ctx context.Context) (T, error) {
	v, err := s.s.value.Await(ctx)
	return cast[T](v, err)
}

// Future returns the slot as a future.
func (s *Slot[T]) Future() *Future[T] {
	return Map(s.s.value, func(v any) (T, error) { return cast[T](v, nil) })
}

func cast[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("slot holds %T, not %T", v, zero)
	}
	return t, nil
}
