/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/transport/conn.go
*/

// Package transport owns the TCP side of the datasource: a RESP connection
// that tracks its transaction protocol state, and a bounded pool that resets
// connections before reuse.
package transport

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
)

var (
	// ErrBroken is returned by a connection whose stream is no longer in sync
	// with the store, after an I/O failure or an interrupted command.
	ErrBroken = errors.New("transport: connection is broken")
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("transport: pool is closed")
)

// DialOptions configures connection setup.
type DialOptions struct {
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Conn is a single RESP connection. It is not safe for concurrent use; the
// pool hands it to one owner at a time.
type Conn struct {
	netConn net.Conn
	reader  *bufio.Reader
	writer  *resp.Writer

	broken   bool
	inMulti  bool
	watching bool
}

// Dial connects to addr and runs AUTH and SELECT when configured.
func Dial(ctx context.Context, addr string, opts DialOptions) (*Conn, error) {
	d := net.Dialer{Timeout: opts.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	c := &Conn{
		netConn: nc,
		reader:  bufio.NewReader(nc),
		writer:  resp.NewWriter(nc),
	}

	if opts.Password != "" {
		args := []string{"AUTH", opts.Password}
		if opts.Username != "" {
			args = []string{"AUTH", opts.Username, opts.Password}
		}
		if err := c.expectOK(ctx, args...); err != nil {
			c.Close()
			return nil, errors.Wrap(err, "auth")
		}
	}
	if opts.DB != 0 {
		if err := c.expectOK(ctx, "SELECT", strconv.Itoa(opts.DB)); err != nil {
			c.Close()
			return nil, errors.Wrapf(err, "select %d", opts.DB)
		}
	}
	return c, nil
}

func (c *Conn) expectOK(ctx context.Context, args ...string) error {
	v, err := c.Do(ctx, args...)
	if err != nil {
		return err
	}
	if v.IsError() {
		return errors.New(v.Err)
	}
	return nil
}

// Do writes one command and reads its reply. Error replies from the store
// come back as values; the returned error is reserved for transport
// failures, after which the connection is broken.
//
// Cancelling ctx interrupts a pending read or write.
func (c *Conn) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if c.broken {
		return resp.Value{}, ErrBroken
	}
	if err := ctx.Err(); err != nil {
		return resp.Value{}, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.netConn.SetDeadline(deadline); err != nil {
		c.broken = true
		return resp.Value{}, errors.Wrap(err, "set deadline")
	}
	stop := context.AfterFunc(ctx, func() {
		// unblock the pending read or write
		_ = c.netConn.SetDeadline(time.Unix(1, 0))
	})

	v, err := c.roundTrip(args)
	if !stop() {
		// the deadline may be poisoned after this call returns
		c.broken = true
	}
	if err != nil {
		c.broken = true
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp.Value{}, errors.Wrapf(ctxErr, "%s interrupted", commandName(args))
		}
		return resp.Value{}, errors.Wrapf(err, "%s", commandName(args))
	}
	c.track(args, v)
	return v, nil
}

func (c *Conn) roundTrip(args []string) (resp.Value, error) {
	if err := c.writer.WriteCommand(args); err != nil {
		return resp.Value{}, err
	}
	if err := c.writer.Flush(); err != nil {
		return resp.Value{}, err
	}
	return resp.ReadValue(c.reader)
}

// track follows the MULTI and WATCH state of the connection from the
// commands that went through it.
func (c *Conn) track(args []string, v resp.Value) {
	switch commandName(args) {
	case "MULTI":
		if !v.IsError() {
			c.inMulti = true
		}
	case "EXEC", "DISCARD", "RESET":
		c.inMulti = false
		c.watching = false
	case "WATCH":
		if !v.IsError() {
			c.watching = true
		}
	case "UNWATCH":
		c.watching = false
	}
}

func commandName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.ToUpper(args[0])
}

// Broken reports whether the connection must be closed instead of reused.
func (c *Conn) Broken() bool {
	return c.broken
}

// Dirty reports whether the connection is inside MULTI or holds watches.
func (c *Conn) Dirty() bool {
	return c.inMulti || c.watching
}

// Reset brings a dirty connection back to a neutral state with DISCARD or
// UNWATCH.
func (c *Conn) Reset(ctx context.Context) error {
	if c.broken {
		return ErrBroken
	}
	if c.inMulti {
		if err := c.expectOK(ctx, "DISCARD"); err != nil {
			c.broken = true
			return errors.Wrap(err, "reset")
		}
	}
	if c.watching {
		if err := c.expectOK(ctx, "UNWATCH"); err != nil {
			c.broken = true
			return errors.Wrap(err, "reset")
		}
	}
	return nil
}

// Close closes the underlying network connection.
func (c *Conn) Close() error {
	c.broken = true
	return c.netConn.Close()
}
