/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_list.go
*/
package handlers

import (
	"strconv"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// ListHandlers is the map of list command names to their handler functions.
var ListHandlers = map[string]Handler{
	"LPUSH":  LPush,
	"RPUSH":  RPush,
	"LPOP":   LPop,
	"RPOP":   RPop,
	"LRANGE": LRange,
	"LLEN":   LLen,
	"LINDEX": LIndex,
}

// LPush handles the LPUSH command. Each value is pushed to the head in
// argument order, so the last argument ends up first. Returns the new length.
func LPush(c *common.Client, args []string, s *Store) *resp.Value {
	return push(c, args, true, s)
}

// RPush handles the RPUSH command. Returns the new length.
func RPush(c *common.Client, args []string, s *Store) *resp.Value {
	return push(c, args, false, s)
}

func push(c *common.Client, args []string, head bool, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.LIST_TYPE, database.NewListItem)
	if err != nil {
		return wrongType()
	}
	for _, v := range args[1:] {
		if head {
			item.List = append([]string{v}, item.List...)
		} else {
			item.List = append(item.List, v)
		}
	}
	db.Save(args[0], item)
	return resp.NewIntegerValue(int64(len(item.List)))
}

// LPop handles the LPOP command.
//
// Syntax:
//
//	LPOP <key> [count]
//
// Returns:
//   - without count: the popped element, or null on a missing key
//   - with count: an array of up to count elements, or null on a missing key
func LPop(c *common.Client, args []string, s *Store) *resp.Value {
	return pop(c, args, true, s)
}

// RPop handles the RPOP command, the tail counterpart of LPOP.
func RPop(c *common.Client, args []string, s *Store) *resp.Value {
	return pop(c, args, false, s)
}

func pop(c *common.Client, args []string, head bool, s *Store) *resp.Value {
	if len(args) > 2 {
		return resp.NewErrorValue(common.ERR_SYNTAX)
	}
	count, withCount := 1, len(args) == 2
	if withCount {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return resp.NewErrorValue("ERR value is out of range, must be positive")
		}
		count = n
	}

	db := s.Keyspace.DB(c)
	item, err := db.Lookup(args[0], common.LIST_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewNullValue()
	}

	if count > len(item.List) {
		count = len(item.List)
	}
	var popped []string
	if head {
		popped = append(popped, item.List[:count]...)
		item.List = item.List[count:]
	} else {
		n := len(item.List)
		for i := n - 1; i >= n-count; i-- {
			popped = append(popped, item.List[i])
		}
		item.List = item.List[:n-count]
	}
	if count > 0 {
		db.Save(args[0], item)
	}

	if !withCount {
		return resp.NewBulkValue(popped[0])
	}
	return resp.NewBulkArray(popped)
}

// normalizeRange converts Redis inclusive start/stop indexes, possibly
// negative, into a half-open [lo, hi) range over a sequence of length n.
// ok is false when the range is empty.
func normalizeRange(start, stop, n int) (lo, hi int, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop + 1, true
}

// LRange handles the LRANGE command.
func LRange(c *common.Client, args []string, s *Store) *resp.Value {
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.LIST_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}
	lo, hi, ok := normalizeRange(start, stop, len(item.List))
	if !ok {
		return resp.NewArrayValue(nil)
	}
	return resp.NewBulkArray(item.List[lo:hi])
}

// LLen handles the LLEN command.
func LLen(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.LIST_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	return resp.NewIntegerValue(int64(len(item.List)))
}

// LIndex handles the LINDEX command. Negative indexes count from the tail.
func LIndex(c *common.Client, args []string, s *Store) *resp.Value {
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.LIST_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewNullValue()
	}
	if idx < 0 {
		idx += len(item.List)
	}
	if idx < 0 || idx >= len(item.List) {
		return resp.NewNullValue()
	}
	return resp.NewBulkValue(item.List[idx])
}
