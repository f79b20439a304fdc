/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_set.go
*/
package handlers

import (
	"sort"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// SetHandlers is the map of set command names to their handler functions.
var SetHandlers = map[string]Handler{
	"SADD":      SAdd,
	"SREM":      SRem,
	"SMEMBERS":  SMembers,
	"SISMEMBER": SIsMember,
	"SCARD":     SCard,
}

// SAdd handles the SADD command. Returns the number of members added.
func SAdd(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.SET_TYPE, database.NewSetItem)
	if err != nil {
		return wrongType()
	}
	var added int64
	for _, m := range args[1:] {
		if _, ok := item.ItemSet[m]; !ok {
			item.ItemSet[m] = struct{}{}
			added++
		}
	}
	db.Save(args[0], item)
	return resp.NewIntegerValue(added)
}

// SRem handles the SREM command. Returns the number of members removed.
func SRem(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.Lookup(args[0], common.SET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	var removed int64
	for _, m := range args[1:] {
		if _, ok := item.ItemSet[m]; ok {
			delete(item.ItemSet, m)
			removed++
		}
	}
	if removed > 0 {
		db.Save(args[0], item)
	}
	return resp.NewIntegerValue(removed)
}

// SMembers handles the SMEMBERS command. Members are returned sorted.
func SMembers(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.SET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}
	members := make([]string, 0, len(item.ItemSet))
	for m := range item.ItemSet {
		members = append(members, m)
	}
	sort.Strings(members)
	return resp.NewBulkArray(members)
}

// SIsMember handles the SISMEMBER command.
func SIsMember(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.SET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return boolReply(false)
	}
	_, ok := item.ItemSet[args[1]]
	return boolReply(ok)
}

// SCard handles the SCARD command.
func SCard(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.SET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	return resp.NewIntegerValue(int64(len(item.ItemSet)))
}
