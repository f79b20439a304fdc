/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/session.go
*/
package datasource

import (
	"context"
	"sync"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/akashmaji946/go-redis-tx/internal/transport"
	"go.uber.org/zap"
)

// request is one command waiting for its turn on the session.
type request struct {
	args    []string
	onReply func(resp.Value, error)
	reply   *Future[resp.Value]
}

// session serializes the commands of one connection owner. A single worker
// writes each command and reads its reply before the next one is written,
// so replies are observed in submission order. onReply callbacks run on the
// worker in that same order.
type session struct {
	ctx    context.Context
	conn   *transport.Conn
	logger *zap.Logger

	mu      sync.Mutex
	pending []*request
	last    *Future[resp.Value]
	closed  bool
	wake    chan struct{}
	exited  chan struct{}
}

func newSession(ctx context.Context, conn *transport.Conn, logger *zap.Logger) *session {
	s := &session{
		ctx:    ctx,
		conn:   conn,
		logger: logger,
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
	go s.run()
	return s
}

// send queues a command. onReply may be nil.
func (s *session) send(onReply func(resp.Value, error), args ...string) *Future[resp.Value] {
	req := &request{args: args, onReply: onReply, reply: NewFuture[resp.Value]()}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.complete(req, resp.Value{}, ErrIllegalState)
		return req.reply
	}
	s.pending = append(s.pending, req)
	s.last = req.reply
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return req.reply
}

// drain waits until every command sent so far has been answered.
func (s *session) drain(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) run() {
	defer close(s.exited)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			continue
		}
		req := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		v, err := s.conn.Do(s.ctx, req.args...)
		if err != nil {
			s.logger.Debug("command failed on session", zap.String("cmd", req.args[0]), zap.Error(err))
		}
		s.complete(req, v, err)
	}
}

func (s *session) complete(req *request, v resp.Value, err error) {
	if req.onReply != nil {
		req.onReply(v, err)
	}
	if err != nil {
		req.reply.Fail(err)
		return
	}
	req.reply.Complete(v)
}

// reset drops an open MULTI or WATCH left on a connection that outlives the
// attempt. It does nothing while commands are still in flight.
func (s *session) reset(ctx context.Context) error {
	if err := s.drain(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 || (s.last != nil && !s.last.IsDone()) {
		return nil
	}
	if !s.conn.Dirty() {
		return nil
	}
	s.logger.Debug("resetting bound connection")
	return s.conn.Reset(ctx)
}

// close stops accepting commands, lets the worker finish what is queued and
// waits for it to exit.
func (s *session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.exited
}
