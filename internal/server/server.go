/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/server/server.go
*/

// Package server runs the in-memory RESP store: it accepts connections and
// feeds their commands to the handlers package.
package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/handlers"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Server is a memstore instance bound to one TCP listener.
type Server struct {
	state  *common.AppState
	store  *handlers.Store
	logger *zap.Logger

	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	nextID   atomic.Int64
	closed   atomic.Bool
}

// New creates a server for config. Nothing listens until Start.
func New(config common.ServerConfig, logger *zap.Logger) *Server {
	logger = common.EnsureLogger(logger).Named("memstore")
	state := common.NewAppState(&config, logger)
	return &Server{
		state:  state,
		store:  handlers.NewStore(state),
		logger: logger,
	}
}

// Start listens on the configured address and serves connections in the
// background. Use Addr to learn the bound address when the port was 0.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.state.Config.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.state.Config.Addr)
	}
	s.listener = l

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.store.Keyspace.ActiveExpire(ctx, s.logger)
	}()
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()

	s.logger.Info("memstore listening", zap.String("addr", l.Addr().String()),
		zap.Int("databases", len(s.store.Keyspace.DBS)))
	return nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.state.Config.Addr
	}
	return s.listener.Addr().String()
}

// Stats exposes the INFO counters.
func (s *Server) Stats() *common.GeneralStats {
	return &s.state.GenStats
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int64 {
	return s.state.NumClients.Load()
}

// Close stops accepting, closes every client connection and waits for the
// connection goroutines to finish.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.state.CloseAllConnections()
	s.wg.Wait()
	s.logger.Info("memstore stopped")
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.closed.Load() {
				s.logger.Warn("accept failed", zap.Error(err))
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleOneConnection(conn)
		}()
	}
}

// handleOneConnection manages a single client connection for its entire lifetime.
//
// Behavior:
//  1. Registers the connection and creates its Client
//  2. Reads one command at a time, dispatches it and writes the reply
//  3. On EOF, read error or protocol error the connection is closed and the
//     client's watches are dropped
func (s *Server) handleOneConnection(conn net.Conn) {
	id := s.nextID.Add(1)
	s.state.AddConn(conn)
	s.state.NumClients.Add(1)
	s.state.GenStats.TotalConnectionsReceived.Add(1)

	client := common.NewClient(id, conn)
	log := s.logger.With(zap.Int64("client", id), zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("accepted connection")

	defer func() {
		s.store.Keyspace.Mu.Lock()
		s.store.Keyspace.UnwatchAll(client)
		s.store.Keyspace.Mu.Unlock()

		s.state.NumClients.Add(-1)
		s.state.RemoveConn(conn)
		conn.Close()
		log.Debug("closed connection")
	}()

	reader := bufio.NewReader(conn)
	w := resp.NewWriter(conn)
	for {
		args, err := resp.ReadCommand(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if !errors.As(err, &netErr) {
				_ = w.Write(resp.NewErrorValue("ERR Protocol error: " + err.Error()))
				_ = w.Flush()
			}
			log.Debug("read failed", zap.Error(err))
			return
		}

		reply := handlers.Handle(client, args, s.store)
		if err := w.Write(reply); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}
}
