/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_transaction.go
*/
package handlers

import (
	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"go.uber.org/zap"
)

// TransactionHandlers is the map of transaction command names to their handler functions.
var TransactionHandlers = map[string]Handler{
	"MULTI":   Multi,
	"EXEC":    Exec,
	"DISCARD": Discard,
	"WATCH":   Watch,
	"UNWATCH": Unwatch,
}

// Multi handles the MULTI command.
// Begins a transaction by creating a new transaction context for the client.
// All subsequent commands (except the transaction control commands) are
// queued until EXEC or DISCARD is called.
//
// Example:
//
//	127.0.0.1:7379> MULTI
//	OK
//	127.0.0.1:7379> SET key1 "value1"
//	QUEUED
//	127.0.0.1:7379> EXEC
//	1) OK
func Multi(c *common.Client, args []string, s *Store) *resp.Value {
	if c.InTx {
		return resp.NewErrorValue("ERR MULTI calls can not be nested")
	}
	c.InTx = true
	c.Tx = common.NewTransaction()
	return okReply()
}

// Exec handles the EXEC command.
// Executes all commands queued in the current transaction atomically.
//
// Returns:
//   - EXECABORT error when a command was rejected while queuing
//   - Null array when a watched key was modified since WATCH
//   - Array of replies, one per queued command, in order. A command that
//     fails at run time leaves its error at its position and the remaining
//     commands still execute
//
// In every case the transaction is closed and all watches are dropped.
func Exec(c *common.Client, args []string, s *Store) *resp.Value {
	if !c.InTx {
		return resp.NewErrorValue("ERR EXEC without MULTI")
	}
	tx := c.Tx
	errored, failed := c.TxErrored, c.TxFailed
	c.ResetTx()
	s.Keyspace.UnwatchAll(c)

	if errored {
		s.State.GenStats.TotalTxnAborted.Add(1)
		return resp.NewErrorValue(common.ERR_EXECABORT)
	}
	if failed {
		s.State.GenStats.TotalTxnAborted.Add(1)
		s.State.Logger.Debug("exec aborted, watched key modified", zap.Int64("client", c.ID))
		return resp.NewNullArrayValue()
	}

	replies := make([]resp.Value, 0, len(tx.Cmds))
	for _, cmd := range tx.Cmds {
		handler := Handlers[cmd.Args[0]]
		replies = append(replies, *handler(c, cmd.Args[1:], s))
	}
	s.State.GenStats.TotalTxnExecuted.Add(1)
	return resp.NewArrayValue(replies)
}

// Discard handles the DISCARD command.
// Aborts the current transaction without executing the queued commands and
// drops all watches.
func Discard(c *common.Client, args []string, s *Store) *resp.Value {
	if !c.InTx {
		return resp.NewErrorValue("ERR DISCARD without MULTI")
	}
	c.ResetTx()
	s.Keyspace.UnwatchAll(c)
	return okReply()
}

// Watch handles the WATCH command.
// Marks the keys for optimistic locking: if any of them is modified before
// EXEC, EXEC answers a null array.
func Watch(c *common.Client, args []string, s *Store) *resp.Value {
	if c.InTx {
		return resp.NewErrorValue("ERR WATCH inside MULTI is not allowed")
	}
	s.Keyspace.Watch(c, args...)
	return okReply()
}

// Unwatch handles the UNWATCH command.
func Unwatch(c *common.Client, args []string, s *Store) *resp.Value {
	s.Keyspace.UnwatchAll(c)
	return okReply()
}
