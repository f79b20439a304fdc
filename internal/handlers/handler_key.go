/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_key.go
*/
package handlers

import (
	"strconv"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// KeyHandlers is the map of generic key command names to their handler functions.
var KeyHandlers = map[string]Handler{
	"DEL":    Del,
	"EXISTS": Exists,
	"EXPIRE": Expire,
	"TTL":    Ttl,
	"TYPE":   Type,
	"RENAME": Rename,
}

// Del handles the DEL command. Returns the number of keys removed.
func Del(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	var n int64
	for _, k := range args {
		if _, ok := db.Poll(k); ok && db.Rem(k) {
			n++
		}
	}
	return resp.NewIntegerValue(n)
}

// Exists handles the EXISTS command. A key named twice is counted twice.
func Exists(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	var n int64
	for _, k := range args {
		if _, ok := db.Poll(k); ok {
			n++
		}
	}
	return resp.NewIntegerValue(n)
}

// Expire handles the EXPIRE command.
//
// Returns 1 when the timeout was set, 0 when the key does not exist. A
// non-positive timeout deletes the key right away.
func Expire(c *common.Client, args []string, s *Store) *resp.Value {
	secs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	db := s.Keyspace.DB(c)
	item, ok := db.Poll(args[0])
	if !ok {
		return boolReply(false)
	}
	if secs <= 0 {
		db.Rem(args[0])
		return boolReply(true)
	}
	item.Exp = time.Now().Add(time.Duration(secs) * time.Second)
	db.Touch(args[0])
	return boolReply(true)
}

// Ttl handles the TTL command.
//
// Returns:
//   - -2 if the key does not exist
//   - -1 if the key has no expiration
//   - remaining seconds otherwise, rounded up
func Ttl(c *common.Client, args []string, s *Store) *resp.Value {
	item, ok := s.Keyspace.DB(c).Poll(args[0])
	if !ok {
		return resp.NewIntegerValue(-2)
	}
	if item.Exp.IsZero() {
		return resp.NewIntegerValue(-1)
	}
	remaining := time.Until(item.Exp)
	return resp.NewIntegerValue(int64((remaining + time.Second - 1) / time.Second))
}

// Type handles the TYPE command.
func Type(c *common.Client, args []string, s *Store) *resp.Value {
	item, ok := s.Keyspace.DB(c).Poll(args[0])
	if !ok {
		return resp.NewStringValue(common.NONE_TYPE)
	}
	return resp.NewStringValue(item.Type)
}

// Rename handles the RENAME command. The expiration moves with the value.
func Rename(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, ok := db.Poll(args[0])
	if !ok {
		return resp.NewErrorValue("ERR no such key")
	}
	if args[0] == args[1] {
		return okReply()
	}
	db.Rem(args[0])
	db.Put(args[1], item)
	return okReply()
}
