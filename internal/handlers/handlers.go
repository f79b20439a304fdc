/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handlers.go
*/
package handlers

import (
	"fmt"
	"strings"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"go.uber.org/zap"
)

// Store bundles what a handler needs besides the client: the shared
// application state and the keyspace.
type Store struct {
	State    *common.AppState
	Keyspace *database.Keyspace
}

// NewStore creates a Store with the configured number of databases.
func NewStore(state *common.AppState) *Store {
	n := 16
	if state.Config != nil && state.Config.Databases > 0 {
		n = state.Config.Databases
	}
	return &Store{State: state, Keyspace: database.NewKeyspace(n, state)}
}

// Handler is a function type that processes one command. args excludes the
// command name. Handlers run with Keyspace.Mu held.
type Handler func(c *common.Client, args []string, s *Store) *resp.Value

// Handlers is the main map of command names to their handler functions.
var Handlers = make(map[string]Handler)

func init() {
	// merge all handler maps
	for _, group := range []map[string]Handler{
		StringHandlers,
		HashHandlers,
		ListHandlers,
		SetHandlers,
		ZSetHandlers,
		KeyHandlers,
		ConnectionHandlers,
		TransactionHandlers,
	} {
		for k, v := range group {
			Handlers[k] = v
		}
	}
}

// can run these even if authenticated=0
var safeCommands = map[string]bool{
	"AUTH":  true,
	"PING":  true,
	"RESET": true,
}

// txControl are executed immediately even while the client is in MULTI.
var txControl = map[string]bool{
	"MULTI":   true,
	"EXEC":    true,
	"DISCARD": true,
	"WATCH":   true,
	"RESET":   true,
}

// Handle is the main command dispatcher. It returns the reply to write back.
//
// Command Flow:
//  1. Look the command up; an unknown command or a wrong argument count is
//     answered with an error and, inside MULTI, poisons the transaction so
//     EXEC answers EXECABORT
//  2. Enforce authentication when requirepass is set
//  3. Inside MULTI queue everything but the transaction control commands and
//     answer QUEUED
//  4. Otherwise run the handler under the keyspace lock
func Handle(c *common.Client, args []string, s *Store) *resp.Value {
	s.State.GenStats.TotalCommandsExecuted.Add(1)
	if len(args) == 0 {
		return resp.NewErrorValue("ERR empty command")
	}

	cmd := strings.ToUpper(args[0])
	handler, ok := Handlers[cmd]
	if !ok {
		s.State.Logger.Debug("unknown command", zap.String("cmd", args[0]), zap.Int64("client", c.ID))
		return rejectQueued(c, resp.NewErrorValue(unknownCommand(args)))
	}
	info, _ := common.LookupCommand(cmd)
	if !info.AcceptsArgs(len(args)) {
		return rejectQueued(c, wrongArity(cmd))
	}

	if s.State.Config.Requirepass != "" && !c.Authenticated && !safeCommands[cmd] {
		return rejectQueued(c, resp.NewErrorValue("NOAUTH Authentication required."))
	}

	if c.InTx && !txControl[cmd] {
		c.Tx.Queue(append([]string{cmd}, args[1:]...))
		return resp.NewStringValue("QUEUED")
	}

	s.Keyspace.Mu.Lock()
	defer s.Keyspace.Mu.Unlock()
	return handler(c, args[1:], s)
}

// rejectQueued flags an open transaction so that EXEC aborts it.
func rejectQueued(c *common.Client, reply *resp.Value) *resp.Value {
	if c.InTx {
		c.TxErrored = true
	}
	return reply
}

func unknownCommand(args []string) string {
	var sb strings.Builder
	for _, a := range args[1:] {
		fmt.Fprintf(&sb, "'%s' ", a)
	}
	return fmt.Sprintf("ERR unknown command '%s', with args beginning with: %s", args[0], sb.String())
}

func wrongArity(cmd string) *resp.Value {
	return resp.NewErrorValue(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(cmd)))
}

func okReply() *resp.Value {
	return resp.NewStringValue("OK")
}

func wrongType() *resp.Value {
	return resp.NewErrorValue(common.ERR_WRONGTYPE)
}

func boolReply(b bool) *resp.Value {
	if b {
		return resp.NewIntegerValue(1)
	}
	return resp.NewIntegerValue(0)
}
