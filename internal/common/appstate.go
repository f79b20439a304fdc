/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/appstate.go
*/
package common

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// GeneralStats holds the counters reported by INFO.
type GeneralStats struct {
	TotalConnectionsReceived atomic.Int64
	TotalCommandsExecuted    atomic.Int64
	TotalTxnExecuted         atomic.Int64
	TotalTxnAborted          atomic.Int64
	TotalExpiredKeys         atomic.Int64
}

// ServerConfig holds the memstore server settings.
type ServerConfig struct {
	// Addr is the TCP listen address, e.g. ":7379" or "127.0.0.1:0".
	Addr string `mapstructure:"addr"`
	// Databases is the number of logical databases available to SELECT.
	Databases int `mapstructure:"databases"`
	// Requirepass, when non-empty, must be presented with AUTH before any
	// other command except PING.
	Requirepass string `mapstructure:"requirepass"`
}

// AppState holds the global application state shared across all client connections.
//
// Fields:
//   - Config: Server configuration
//   - Logger: Structured logger for the server
//   - GenStats: counters for INFO
//   - ActiveConns: open connections, closed on shutdown
type AppState struct {
	ServerStartTime time.Time

	Config *ServerConfig
	Logger *zap.Logger

	NumClients atomic.Int64
	GenStats   GeneralStats

	ActiveConns   map[net.Conn]struct{}
	ActiveConnsMu sync.Mutex
}

// NewAppState creates and initializes a new AppState instance.
func NewAppState(config *ServerConfig, logger *zap.Logger) *AppState {
	return &AppState{
		ServerStartTime: time.Now(),
		Config:          config,
		Logger:          EnsureLogger(logger),
		ActiveConns:     make(map[net.Conn]struct{}),
	}
}

// AddConn registers an open connection.
func (s *AppState) AddConn(conn net.Conn) {
	s.ActiveConnsMu.Lock()
	defer s.ActiveConnsMu.Unlock()
	s.ActiveConns[conn] = struct{}{}
}

// RemoveConn forgets a closed connection.
func (s *AppState) RemoveConn(conn net.Conn) {
	s.ActiveConnsMu.Lock()
	defer s.ActiveConnsMu.Unlock()
	delete(s.ActiveConns, conn)
}

// CloseAllConnections closes every registered connection.
func (s *AppState) CloseAllConnections() {
	s.ActiveConnsMu.Lock()
	defer s.ActiveConnsMu.Unlock()
	for conn := range s.ActiveConns {
		conn.Close()
	}
	s.ActiveConns = make(map[net.Conn]struct{})
}
