/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/errors.go
*/
package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrIllegalState is returned when a transaction is used outside of its
	// body, after it was committed, discarded or aborted.
	ErrIllegalState = errors.New("transaction is no longer open")
	// ErrConcurrentUse is returned to the second goroutine that uses the same
	// open transaction at the same time.
	ErrConcurrentUse = errors.New("transaction used from two goroutines at once")
	// ErrTimeout is returned by the blocking datasource when its timeout or
	// the caller's deadline expires.
	ErrTimeout = errors.New("operation timed out")
	// ErrSlotEmpty is returned by a result slot that holds no value: the
	// transaction has not run yet or was aborted.
	ErrSlotEmpty = errors.New("result slot is empty")
	// ErrInvalidCommand is the cause of client failures: a known command was
	// built with the wrong number of arguments or an argument could not be
	// encoded.
	ErrInvalidCommand = errors.New("redis command is not valid")
	// ErrClosed is returned after the datasource was closed.
	ErrClosed = errors.New("datasource is closed")
)

// FailureKind tells when a transaction failure was detected.
type FailureKind int

const (
	// ClientFailure is detected before the command is sent.
	ClientFailure FailureKind = iota + 1
	// EarlyFailure is a command the store refused to queue.
	EarlyFailure
)

func (k FailureKind) String() string {
	switch k {
	case ClientFailure:
		return "client"
	case EarlyFailure:
		return "early"
	}
	return "unknown"
}

// TransactionError aborts a transaction. It is returned by WithTransaction
// instead of a result.
type TransactionError struct {
	Kind    FailureKind
	Command string
	Err     error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction aborted by %s failure on %s: %v", e.Kind, e.Command, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// RedisError is an error reply from the store. Inside a committed
// transaction it sits at the position of the failing command.
type RedisError struct {
	Msg string
}

func (e *RedisError) Error() string {
	return e.Msg
}

// Prefix returns the error code, e.g. ERR, WRONGTYPE or EXECABORT.
func (e *RedisError) Prefix() string {
	prefix, _, _ := strings.Cut(e.Msg, " ")
	return prefix
}

// timeoutError reports an expired deadline as both ErrTimeout and its cause.
type timeoutError struct {
	cause error
}

func (e *timeoutError) Error() string {
	return ErrTimeout.Error() + ": " + e.cause.Error()
}

func (e *timeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *timeoutError) Unwrap() error {
	return e.cause
}

// asTimeout converts deadline expiry into a timeout error.
func asTimeout(err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return &timeoutError{cause: err}
	}
	return err
}
