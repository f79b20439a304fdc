/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/transport/pool.go
*/
package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"go.uber.org/zap"
)

// DefaultResetTimeout bounds the DISCARD/UNWATCH issued when a dirty
// connection is released.
const DefaultResetTimeout = time.Second

// DialFunc opens a new connection.
type DialFunc func(ctx context.Context) (*Conn, error)

// PoolStats is a snapshot of the pool occupancy.
type PoolStats struct {
	Open int64
	Idle int64
}

// Pool is a bounded connection pool. At most size connections exist at once;
// Acquire blocks until one is available or ctx is done.
//
// Released connections are checked: broken ones are closed, dirty ones are
// reset first and closed if the reset fails.
type Pool struct {
	dial         DialFunc
	tokens       chan struct{}
	idle         chan *Conn
	resetTimeout time.Duration
	logger       *zap.Logger

	open   atomic.Int64
	mu     sync.Mutex // orders Release against Close
	closed atomic.Bool
}

// NewPool creates a pool of up to size connections produced by dial.
func NewPool(size int, dial DialFunc, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		dial:         dial,
		tokens:       make(chan struct{}, size),
		idle:         make(chan *Conn, size),
		resetTimeout: DefaultResetTimeout,
		logger:       common.EnsureLogger(logger),
	}
	for range size {
		p.tokens <- struct{}{}
	}
	return p
}

// Acquire returns an idle connection or dials a new one.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	select {
	case <-p.tokens:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.closed.Load() {
		p.tokens <- struct{}{}
		return nil, ErrPoolClosed
	}

	select {
	case c := <-p.idle:
		return c, nil
	default:
	}

	c, err := p.dial(ctx)
	if err != nil {
		p.tokens <- struct{}{}
		return nil, err
	}
	p.open.Add(1)
	return c, nil
}

// Release hands c back to the pool.
func (p *Pool) Release(c *Conn) {
	if c == nil {
		return
	}
	defer func() { p.tokens <- struct{}{} }()

	if !c.Broken() && c.Dirty() {
		ctx, cancel := context.WithTimeout(context.Background(), p.resetTimeout)
		err := c.Reset(ctx)
		cancel()
		if err != nil {
			p.logger.Warn("connection reset failed, closing", zap.Error(err))
		} else {
			p.logger.Debug("connection reset on release")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c.Broken() || p.closed.Load() {
		p.discard(c)
		return
	}
	p.idle <- c
}

func (p *Pool) discard(c *Conn) {
	_ = c.Close()
	p.open.Add(-1)
}

// Stats reports the number of open and idle connections.
func (p *Pool) Stats() PoolStats {
	return PoolStats{Open: p.open.Load(), Idle: int64(len(p.idle))}
}

// Close closes idle connections and makes every later Acquire fail.
// Connections still in use are closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed.Store(true)
	for {
		select {
		case c := <-p.idle:
			p.discard(c)
		default:
			return nil
		}
	}
}
