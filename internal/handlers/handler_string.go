/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_string.go
*/
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// StringHandlers is the map of string command names to their handler functions.
var StringHandlers = map[string]Handler{
	"GET":    Get,
	"SET":    Set,
	"SETNX":  SetNX,
	"SETEX":  SetEX,
	"GETSET": GetSet,
	"MGET":   Mget,
	"MSET":   Mset,
	"INCR":   Incr,
	"INCRBY": IncrBy,
	"DECR":   Decr,
	"DECRBY": DecrBy,
	"APPEND": Append,
	"STRLEN": Strlen,
}

// Get handles the GET command.
//
// Returns:
//   - Bulk string if key exists and not expired
//   - Null if key does not exist or expired
//   - WRONGTYPE if the key holds a non-string value
func Get(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.STRING_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewNullValue()
	}
	return resp.NewBulkValue(item.Str)
}

// Set handles the SET command.
//
// Syntax:
//
//	SET <key> <value> [EX seconds | PX milliseconds] [NX | XX]
//
// Returns OK, or null when an NX/XX condition prevented the write.
func Set(c *common.Client, args []string, s *Store) *resp.Value {
	key, val := args[0], args[1]
	var (
		ttl    time.Duration
		nx, xx bool
	)
	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "EX", "PX":
			if i+1 >= len(args) || ttl != 0 {
				return resp.NewErrorValue(common.ERR_SYNTAX)
			}
			n, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return resp.NewErrorValue(common.ERR_NOT_INTEGER)
			}
			if n <= 0 {
				return resp.NewErrorValue("ERR invalid expire time in 'set' command")
			}
			unit := time.Second
			if strings.EqualFold(args[i], "PX") {
				unit = time.Millisecond
			}
			ttl = time.Duration(n) * unit
			i++
		default:
			return resp.NewErrorValue(common.ERR_SYNTAX)
		}
	}
	if nx && xx {
		return resp.NewErrorValue(common.ERR_SYNTAX)
	}

	db := s.Keyspace.DB(c)
	_, exists := db.Poll(key)
	if (nx && exists) || (xx && !exists) {
		return resp.NewNullValue()
	}

	item := database.NewStringItem(val)
	if ttl > 0 {
		item.Exp = time.Now().Add(ttl)
	}
	db.Put(key, item)
	return okReply()
}

// SetNX handles the SETNX command. Returns 1 when the key was set, 0 otherwise.
func SetNX(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	if _, exists := db.Poll(args[0]); exists {
		return resp.NewIntegerValue(0)
	}
	db.Put(args[0], database.NewStringItem(args[1]))
	return resp.NewIntegerValue(1)
}

// SetEX handles the SETEX command: SET with an expiration in seconds.
func SetEX(c *common.Client, args []string, s *Store) *resp.Value {
	secs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	if secs <= 0 {
		return resp.NewErrorValue("ERR invalid expire time in 'setex' command")
	}
	item := database.NewStringItem(args[2])
	item.Exp = time.Now().Add(time.Duration(secs) * time.Second)
	s.Keyspace.DB(c).Put(args[0], item)
	return okReply()
}

// GetSet handles the GETSET command. Returns the old value or null.
func GetSet(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	old, err := db.Lookup(args[0], common.STRING_TYPE)
	if err != nil {
		return wrongType()
	}
	db.Put(args[0], database.NewStringItem(args[1]))
	if old == nil {
		return resp.NewNullValue()
	}
	return resp.NewBulkValue(old.Str)
}

// Mget handles the MGET command. Missing keys and keys of another type are null.
func Mget(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	vals := make([]resp.Value, 0, len(args))
	for _, k := range args {
		item, err := db.Lookup(k, common.STRING_TYPE)
		if err != nil || item == nil {
			vals = append(vals, *resp.NewNullValue())
			continue
		}
		vals = append(vals, *resp.NewBulkValue(item.Str))
	}
	return resp.NewArrayValue(vals)
}

// Mset handles the MSET command.
func Mset(c *common.Client, args []string, s *Store) *resp.Value {
	if len(args)%2 != 0 {
		return wrongArity("MSET")
	}
	db := s.Keyspace.DB(c)
	for i := 0; i < len(args); i += 2 {
		db.Put(args[i], database.NewStringItem(args[i+1]))
	}
	return okReply()
}

// Incr handles the INCR command.
func Incr(c *common.Client, args []string, s *Store) *resp.Value {
	return incrBy(c, args[0], 1, s)
}

// Decr handles the DECR command.
func Decr(c *common.Client, args []string, s *Store) *resp.Value {
	return incrBy(c, args[0], -1, s)
}

// IncrBy handles the INCRBY command.
func IncrBy(c *common.Client, args []string, s *Store) *resp.Value {
	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	return incrBy(c, args[0], n, s)
}

// DecrBy handles the DECRBY command.
func DecrBy(c *common.Client, args []string, s *Store) *resp.Value {
	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	return incrBy(c, args[0], -n, s)
}

// incrBy adds delta to the integer stored at key, keeping its expiration.
// A missing key counts as 0.
func incrBy(c *common.Client, key string, delta int64, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(key, common.STRING_TYPE, func() *database.Item {
		return database.NewStringItem("0")
	})
	if err != nil {
		return wrongType()
	}
	cur, err := strconv.ParseInt(item.Str, 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	if (delta > 0 && cur > maxInt64-delta) || (delta < 0 && cur < minInt64-delta) {
		return resp.NewErrorValue("ERR increment or decrement would overflow")
	}
	cur += delta
	item.Str = strconv.FormatInt(cur, 10)
	db.Put(key, item)
	return resp.NewIntegerValue(cur)
}

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
)

// Append handles the APPEND command. Returns the new length.
func Append(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.STRING_TYPE, func() *database.Item {
		return database.NewStringItem("")
	})
	if err != nil {
		return wrongType()
	}
	item.Str += args[1]
	db.Put(args[0], item)
	return resp.NewIntegerValue(int64(len(item.Str)))
}

// Strlen handles the STRLEN command. A missing key has length 0.
func Strlen(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.STRING_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	return resp.NewIntegerValue(int64(len(item.Str)))
}
