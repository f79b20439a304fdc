/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/client.go
*/
package common

import (
	"net"
)

// Client represents a connected client session on the memstore server.
// Each client connection has its own Client instance that tracks connection-specific state.
//
// Fields:
//   - Conn: The network connection to the client
//   - Authenticated: Whether this client has successfully authenticated
//     (required if requirepass is set in config)
//   - InTx / Tx: MULTI state and the queued commands
//   - TxErrored: set when a command was rejected while queuing; EXEC then
//     answers EXECABORT instead of running anything
//   - WatchedKeys / TxFailed: optimistic locking state. TxFailed is set by
//     Database.Touch when another client modifies a watched key
//   - DatabaseID: the logical database selected with SELECT
//
// Thread Safety:
//   - Each Client is used by a single goroutine (one per connection)
//   - TxFailed is written by other connections; it is only accessed while the
//     server-wide command lock is held
type Client struct {
	ID            int64
	Conn          net.Conn
	Authenticated bool

	// transaction
	InTx      bool         // in a txn?
	Tx        *Transaction // txn context
	TxErrored bool         // a command was rejected while queuing

	// optimistic locking
	WatchedKeys []string
	TxFailed    bool // set to true if a watched key is modified

	DatabaseID int
}

// NewClient creates a new Client instance for a network connection.
// Authentication starts false; the connection begins on database 0.
func NewClient(id int64, conn net.Conn) *Client {
	return &Client{
		ID:          id,
		Conn:        conn,
		WatchedKeys: make([]string, 0),
	}
}

// ResetTx clears the MULTI state of the client. Watches are handled by the
// database because they live in its watcher registry.
func (c *Client) ResetTx() {
	c.InTx = false
	c.Tx = nil
	c.TxErrored = false
}
