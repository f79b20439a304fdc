/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/controller.go
*/
package datasource

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// txState is the lifecycle of one transaction attempt.
type txState int

const (
	stateIdle txState = iota
	stateWatching
	stateOpen
	stateClosing
	stateCommitted
	stateAbortedByCAS
	stateAbortedByDiscard
	stateAbortedByError
)

func (s txState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWatching:
		return "watching"
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	case stateCommitted:
		return "committed"
	case stateAbortedByCAS:
		return "aborted_cas"
	case stateAbortedByDiscard:
		return "aborted_discard"
	case stateAbortedByError:
		return "aborted_error"
	}
	return "unknown"
}

// controller drives the MULTI/EXEC protocol of one attempt over its session.
//
// MULTI is sent lazily, just before the first queued command, so a body that
// discards before queuing anything never opens a transaction on the store.
// Every command is validated before it is written; the first client or early
// failure is kept and turns the rest of the attempt into an abort.
type controller struct {
	id     string
	sess   *session
	logger *zap.Logger

	busy atomic.Bool

	mu        sync.Mutex
	state     txState
	multiSent bool
	queue     commandQueue
	failure   *TransactionError
	ioErr     error
	late      int
}

func newController(id string, sess *session, logger *zap.Logger) *controller {
	return &controller{id: id, sess: sess, logger: logger, state: stateIdle}
}

// watch sends WATCH for keys and waits for the acknowledgement.
func (c *controller) watch(ctx context.Context, keys []string) error {
	c.mu.Lock()
	c.state = stateWatching
	c.mu.Unlock()

	args := append([]string{"WATCH"}, keys...)
	v, err := c.sess.send(nil, args...).Await(ctx)
	if err != nil {
		return errors.Wrap(err, "watch")
	}
	if v.IsError() {
		return &TransactionError{Kind: EarlyFailure, Command: "WATCH", Err: &RedisError{Msg: v.Err}}
	}
	c.logger.Debug("watching keys", zap.Strings("keys", keys))
	return nil
}

// open makes the attempt accept commands.
func (c *controller) open() {
	c.mu.Lock()
	c.state = stateOpen
	c.mu.Unlock()
}

// enqueue validates cmd and queues it behind MULTI. The returned slot's
// Queued future completes when the store answered QUEUED.
func (c *controller) enqueue(cmd Command, decode decodeFunc) *slot {
	if !c.busy.CompareAndSwap(false, true) {
		return failedSlot(ErrConcurrentUse)
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateOpen {
		return failedSlot(ErrIllegalState)
	}
	if c.failure != nil {
		return failedSlot(c.failure)
	}

	if err := cmd.validate(); err != nil {
		te := &TransactionError{Kind: ClientFailure, Command: cmd.Name, Err: err}
		c.failure = te
		s := failedSlot(te)
		if c.multiSent {
			// the store side of the transaction is dropped right away
			c.sess.send(nil, "DISCARD")
		}
		c.logger.Debug("client failure, transaction discarded", zap.String("cmd", cmd.Name), zap.Error(err))
		return s
	}

	if !c.multiSent {
		c.multiSent = true
		c.sess.send(c.onMultiReply, "MULTI")
	}

	s := newSlot(decode)
	c.queue.push(cmd, s)
	c.sess.send(func(v resp.Value, err error) { c.onQueuedReply(cmd, s, v, err) }, cmd.wire()...)
	return s
}

func (c *controller) onMultiReply(v resp.Value, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		c.recordIOError(err)
	case v.IsError() && c.failure == nil:
		c.failure = &TransactionError{Kind: EarlyFailure, Command: "MULTI", Err: &RedisError{Msg: v.Err}}
	}
}

func (c *controller) onQueuedReply(cmd Command, s *slot, v resp.Value, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		c.recordIOError(err)
		s.queued.Fail(err)
	case v.IsError():
		te := &TransactionError{Kind: EarlyFailure, Command: cmd.Name, Err: &RedisError{Msg: v.Err}}
		if c.failure == nil {
			c.failure = te
			c.logger.Debug("early failure", zap.String("cmd", cmd.Name), zap.String("reply", v.Err))
		}
		s.queued.Fail(te)
	case c.failure != nil && c.failure.Kind == ClientFailure:
		// queued before a client failure; the DISCARD already dropped it
		s.queued.Fail(c.failure)
	default:
		s.queued.Complete(Void{})
	}
}

func (c *controller) recordIOError(err error) {
	if c.ioErr == nil {
		c.ioErr = err
		c.logger.Warn("protocol stream lost", zap.Error(err))
	}
}

// discard abandons the attempt. The store transaction is dropped with
// DISCARD when MULTI was sent, otherwise watches are released with UNWATCH.
func (c *controller) discard() *Future[Void] {
	if !c.busy.CompareAndSwap(false, true) {
		return Failed[Void](ErrConcurrentUse)
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateOpen {
		return Failed[Void](ErrIllegalState)
	}
	c.state = stateAbortedByDiscard

	cmd := "UNWATCH"
	if c.multiSent {
		cmd = "DISCARD"
	}
	return Map(c.sess.send(nil, cmd), func(v resp.Value) (Void, error) {
		if v.IsError() {
			return Void{}, &RedisError{Msg: v.Err}
		}
		return Void{}, nil
	})
}

// isEmpty reports whether the attempt was discarded before MULTI was sent.
func (c *controller) isEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateAbortedByDiscard && !c.multiSent
}

// close rejects further commands without touching the connection. Used when
// the attempt ends before the body ran.
func (c *controller) close() {
	c.mu.Lock()
	c.state = stateAbortedByError
	c.mu.Unlock()
}

// finish ends the attempt once the body completed with bodyErr. It returns
// the result of a committed or CAS/discard-aborted transaction, or the error
// that aborted it.
func (c *controller) finish(ctx context.Context, bodyErr error) (*TransactionResult, error) {
	c.mu.Lock()
	prev := c.state
	if prev == stateOpen {
		c.state = stateClosing
	}
	c.mu.Unlock()

	if err := c.sess.drain(ctx); err != nil {
		c.mu.Lock()
		multiSent := c.multiSent
		c.mu.Unlock()
		if multiSent {
			// the worker runs on the session context and still writes it
			c.sess.send(nil, "DISCARD")
		}
		return c.abort(errors.Wrap(err, "waiting for queued commands"))
	}

	c.mu.Lock()
	failure, ioErr, multiSent := c.failure, c.ioErr, c.multiSent
	c.mu.Unlock()

	switch {
	case prev == stateAbortedByDiscard:
		c.queue.abandon()
		c.logger.Debug("transaction discarded", zap.Int("queued", c.queue.len()))
		return &TransactionResult{discarded: true}, nil
	case ioErr != nil:
		return c.abort(ioErr)
	case failure != nil && failure.Kind == ClientFailure:
		return c.abort(failure)
	case failure != nil:
		// the store already flagged the transaction; EXEC answers EXECABORT
		if _, err := c.sess.send(nil, "EXEC").Await(ctx); err != nil {
			c.logger.Warn("exec after early failure", zap.Error(err))
		}
		return c.abort(failure)
	case bodyErr != nil:
		if multiSent {
			c.sess.send(nil, "DISCARD")
			_ = c.sess.drain(ctx)
		}
		return c.abort(bodyErr)
	}

	if !multiSent {
		c.sess.send(nil, "MULTI")
	}
	v, err := c.sess.send(nil, "EXEC").Await(ctx)
	if err != nil {
		return c.abort(errors.Wrap(err, "exec"))
	}
	return c.decodeExec(v)
}

func (c *controller) abort(err error) (*TransactionResult, error) {
	c.mu.Lock()
	c.state = stateAbortedByError
	c.mu.Unlock()
	c.queue.abandon()
	return nil, err
}

// decodeExec distributes the EXEC reply over the slots.
func (c *controller) decodeExec(v resp.Value) (*TransactionResult, error) {
	switch {
	case v.Typ == resp.NULLARRAY || v.Typ == resp.NULL:
		c.mu.Lock()
		c.state = stateAbortedByCAS
		c.mu.Unlock()
		c.queue.abandon()
		c.logger.Info("transaction aborted, watched key modified", zap.String("attempt", c.id))
		return &TransactionResult{discarded: true}, nil
	case v.IsError():
		return c.abort(&TransactionError{Kind: EarlyFailure, Command: "EXEC", Err: &RedisError{Msg: v.Err}})
	case v.Typ != resp.ARRAY:
		return c.abort(errors.Errorf("unexpected EXEC reply %s", v.String()))
	case len(v.Arr) != c.queue.len():
		return c.abort(errors.Errorf("EXEC returned %d replies for %d commands", len(v.Arr), c.queue.len()))
	}

	res := &TransactionResult{
		values: make([]any, len(v.Arr)),
		errs:   make([]error, len(v.Arr)),
	}
	late := 0
	for i, p := range c.queue.items {
		x, err := p.slot.resolve(v.Arr[i])
		if err != nil {
			late++
			res.values[i] = err
			res.errs[i] = err
			continue
		}
		res.values[i] = x
	}

	c.mu.Lock()
	c.state = stateCommitted
	c.late = late
	c.mu.Unlock()
	c.logger.Debug("transaction committed", zap.Int("commands", len(v.Arr)), zap.Int("late_failures", late))
	return res, nil
}

// outcome returns the final state and the counters recorded in metrics.
func (c *controller) outcome() (txState, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.queue.len(), c.late
}
