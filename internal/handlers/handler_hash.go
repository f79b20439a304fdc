/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_hash.go
*/
package handlers

import (
	"sort"
	"strconv"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// HashHandlers is the map of hash command names to their handler functions.
var HashHandlers = map[string]Handler{
	"HSET":    HSet,
	"HMSET":   HMSet,
	"HGET":    HGet,
	"HEXISTS": HExists,
	"HDEL":    HDel,
	"HGETALL": HGetAll,
	"HINCRBY": HIncrBy,
	"HLEN":    HLen,
	"HKEYS":   HKeys,
	"HVALS":   HVals,
}

// hset stores field/value pairs and returns how many fields were new.
func hset(c *common.Client, args []string, s *Store) (int64, *resp.Value) {
	if len(args)%2 != 1 {
		return 0, wrongArity("HSET")
	}
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.HASH_TYPE, database.NewHashItem)
	if err != nil {
		return 0, wrongType()
	}
	var added int64
	for i := 1; i < len(args); i += 2 {
		if _, ok := item.Hash[args[i]]; !ok {
			added++
		}
		item.Hash[args[i]] = args[i+1]
	}
	db.Save(args[0], item)
	return added, nil
}

// HSet handles the HSET command.
//
// Syntax:
//
//	HSET <key> <field> <value> [<field> <value> ...]
//
// Returns the number of fields that were added.
func HSet(c *common.Client, args []string, s *Store) *resp.Value {
	added, errReply := hset(c, args, s)
	if errReply != nil {
		return errReply
	}
	return resp.NewIntegerValue(added)
}

// HMSet handles the HMSET command. Same as HSET but answers OK.
func HMSet(c *common.Client, args []string, s *Store) *resp.Value {
	if _, errReply := hset(c, args, s); errReply != nil {
		return errReply
	}
	return okReply()
}

// HGet handles the HGET command.
func HGet(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewNullValue()
	}
	v, ok := item.Hash[args[1]]
	if !ok {
		return resp.NewNullValue()
	}
	return resp.NewBulkValue(v)
}

// HExists handles the HEXISTS command. Returns 1 or 0.
func HExists(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return boolReply(false)
	}
	_, ok := item.Hash[args[1]]
	return boolReply(ok)
}

// HDel handles the HDEL command. Returns the number of removed fields.
func HDel(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	var removed int64
	for _, f := range args[1:] {
		if _, ok := item.Hash[f]; ok {
			delete(item.Hash, f)
			removed++
		}
	}
	if removed > 0 {
		db.Save(args[0], item)
	}
	return resp.NewIntegerValue(removed)
}

// sortedFields returns the field names of a hash in lexical order so that
// replies are deterministic.
func sortedFields(h map[string]string) []string {
	fields := make([]string, 0, len(h))
	for f := range h {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// HGetAll handles the HGETALL command. Replies field, value, field, value...
func HGetAll(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}
	out := make([]string, 0, 2*len(item.Hash))
	for _, f := range sortedFields(item.Hash) {
		out = append(out, f, item.Hash[f])
	}
	return resp.NewBulkArray(out)
}

// HIncrBy handles the HINCRBY command.
func HIncrBy(c *common.Client, args []string, s *Store) *resp.Value {
	delta, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.HASH_TYPE, database.NewHashItem)
	if err != nil {
		return wrongType()
	}
	cur := int64(0)
	if v, ok := item.Hash[args[1]]; ok {
		cur, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return resp.NewErrorValue("ERR hash value is not an integer")
		}
	}
	cur += delta
	item.Hash[args[1]] = strconv.FormatInt(cur, 10)
	db.Save(args[0], item)
	return resp.NewIntegerValue(cur)
}

// HLen handles the HLEN command.
func HLen(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	return resp.NewIntegerValue(int64(len(item.Hash)))
}

// HKeys handles the HKEYS command.
func HKeys(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}
	return resp.NewBulkArray(sortedFields(item.Hash))
}

// HVals handles the HVALS command. Values follow the field order of HKEYS.
func HVals(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.HASH_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}
	fields := sortedFields(item.Hash)
	vals := make([]string, len(fields))
	for i, f := range fields {
		vals[i] = item.Hash[f]
	}
	return resp.NewBulkArray(vals)
}
