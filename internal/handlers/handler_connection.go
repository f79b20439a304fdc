/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_connection.go
*/
package handlers

import (
	"strconv"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"go.uber.org/zap"
)

// ConnectionHandlers is the map of connection and server command names to their handler functions.
var ConnectionHandlers = map[string]Handler{
	"PING":     Ping,
	"ECHO":     Echo,
	"SELECT":   Select,
	"AUTH":     Auth,
	"RESET":    Reset,
	"DBSIZE":   DBSize,
	"FLUSHDB":  FlushDB,
	"FLUSHALL": FlushAll,
	"INFO":     Info,
}

// Ping handles the PING command. Replies PONG, or echoes its argument.
func Ping(c *common.Client, args []string, s *Store) *resp.Value {
	if len(args) == 0 {
		return resp.NewStringValue("PONG")
	}
	if len(args) > 1 {
		return wrongArity("PING")
	}
	return resp.NewBulkValue(args[0])
}

// Echo handles the ECHO command.
func Echo(c *common.Client, args []string, s *Store) *resp.Value {
	return resp.NewBulkValue(args[0])
}

// Select handles the SELECT command.
func Select(c *common.Client, args []string, s *Store) *resp.Value {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	if idx < 0 || idx >= len(s.Keyspace.DBS) {
		return resp.NewErrorValue("ERR DB index is out of range")
	}
	c.DatabaseID = idx
	return okReply()
}

// Auth handles the AUTH command.
//
// Syntax:
//
//	AUTH <password>
//	AUTH <username> <password>
//
// Only the default user exists; a username other than "default" is rejected.
func Auth(c *common.Client, args []string, s *Store) *resp.Value {
	if len(args) > 2 {
		return resp.NewErrorValue(common.ERR_SYNTAX)
	}
	if s.State.Config.Requirepass == "" {
		return resp.NewErrorValue("ERR AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?")
	}
	user, pass := "default", args[0]
	if len(args) == 2 {
		user, pass = args[0], args[1]
	}
	if user != "default" || pass != s.State.Config.Requirepass {
		s.State.Logger.Info("authentication failed", zap.Int64("client", c.ID))
		return resp.NewErrorValue("WRONGPASS invalid username-password pair or user is disabled.")
	}
	c.Authenticated = true
	return okReply()
}

// Reset handles the RESET command: leaves MULTI, drops watches, selects
// database 0 and, when a password is configured, deauthenticates.
func Reset(c *common.Client, args []string, s *Store) *resp.Value {
	c.ResetTx()
	s.Keyspace.UnwatchAll(c)
	c.DatabaseID = 0
	if s.State.Config.Requirepass != "" {
		c.Authenticated = false
	}
	return resp.NewStringValue("RESET")
}

// DBSize handles the DBSIZE command.
func DBSize(c *common.Client, args []string, s *Store) *resp.Value {
	return resp.NewIntegerValue(int64(s.Keyspace.DB(c).Size()))
}

// FlushDB handles the FLUSHDB command.
func FlushDB(c *common.Client, args []string, s *Store) *resp.Value {
	s.Keyspace.DB(c).Flush()
	return okReply()
}

// FlushAll handles the FLUSHALL command.
func FlushAll(c *common.Client, args []string, s *Store) *resp.Value {
	s.Keyspace.FlushAll()
	return okReply()
}

// Info handles the INFO command.
func Info(c *common.Client, args []string, s *Store) *resp.Value {
	section := ""
	if len(args) > 0 {
		section = args[0]
	}
	info := common.NewRedisInfo()
	return resp.NewBulkValue(info.Print(s.State, s.Keyspace.DB(c).Size(), section))
}
