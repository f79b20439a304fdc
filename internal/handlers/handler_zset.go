/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/handlers/handler_zset.go
*/
package handlers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/database"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
)

// ZSetHandlers is the map of sorted set command names to their handler functions.
var ZSetHandlers = map[string]Handler{
	"ZADD":    ZAdd,
	"ZINCRBY": ZIncrBy,
	"ZSCORE":  ZScore,
	"ZREM":    ZRem,
	"ZRANGE":  ZRange,
	"ZCARD":   ZCard,
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ZAdd handles the ZADD command.
//
// Syntax:
//
//	ZADD <key> <score> <member> [<score> <member> ...]
//
// Returns the number of new members. All scores are parsed before anything
// is written.
func ZAdd(c *common.Client, args []string, s *Store) *resp.Value {
	if len(args)%2 != 1 {
		return resp.NewErrorValue(common.ERR_SYNTAX)
	}
	scores := make([]float64, 0, len(args)/2)
	for i := 1; i < len(args); i += 2 {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return resp.NewErrorValue(common.ERR_NOT_FLOAT)
		}
		scores = append(scores, f)
	}

	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.ZSET_TYPE, database.NewZSetItem)
	if err != nil {
		return wrongType()
	}
	var added int64
	for i, score := range scores {
		member := args[2+2*i]
		if _, ok := item.ZSet[member]; !ok {
			added++
		}
		item.ZSet[member] = score
	}
	db.Save(args[0], item)
	return resp.NewIntegerValue(added)
}

// ZIncrBy handles the ZINCRBY command. Returns the new score as a bulk string.
func ZIncrBy(c *common.Client, args []string, s *Store) *resp.Value {
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return resp.NewErrorValue(common.ERR_NOT_FLOAT)
	}
	db := s.Keyspace.DB(c)
	item, err := db.LookupOrCreate(args[0], common.ZSET_TYPE, database.NewZSetItem)
	if err != nil {
		return wrongType()
	}
	item.ZSet[args[2]] += delta
	db.Save(args[0], item)
	return resp.NewBulkValue(formatScore(item.ZSet[args[2]]))
}

// ZScore handles the ZSCORE command.
func ZScore(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.ZSET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewNullValue()
	}
	score, ok := item.ZSet[args[1]]
	if !ok {
		return resp.NewNullValue()
	}
	return resp.NewBulkValue(formatScore(score))
}

// ZRem handles the ZREM command. Returns the number of members removed.
func ZRem(c *common.Client, args []string, s *Store) *resp.Value {
	db := s.Keyspace.DB(c)
	item, err := db.Lookup(args[0], common.ZSET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	var removed int64
	for _, m := range args[1:] {
		if _, ok := item.ZSet[m]; ok {
			delete(item.ZSet, m)
			removed++
		}
	}
	if removed > 0 {
		db.Save(args[0], item)
	}
	return resp.NewIntegerValue(removed)
}

// ZRange handles the ZRANGE command.
//
// Syntax:
//
//	ZRANGE <key> <start> <stop> [WITHSCORES]
//
// Members are ordered by score, ties broken by member.
func ZRange(c *common.Client, args []string, s *Store) *resp.Value {
	withScores := false
	if len(args) == 4 {
		if !strings.EqualFold(args[3], "WITHSCORES") {
			return resp.NewErrorValue(common.ERR_SYNTAX)
		}
		withScores = true
	} else if len(args) > 4 {
		return resp.NewErrorValue(common.ERR_SYNTAX)
	}
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return resp.NewErrorValue(common.ERR_NOT_INTEGER)
	}

	item, err := s.Keyspace.DB(c).Lookup(args[0], common.ZSET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewArrayValue(nil)
	}

	members := make([]string, 0, len(item.ZSet))
	for m := range item.ZSet {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := item.ZSet[members[i]], item.ZSet[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})

	lo, hi, ok := normalizeRange(start, stop, len(members))
	if !ok {
		return resp.NewArrayValue(nil)
	}
	out := make([]string, 0, hi-lo)
	for _, m := range members[lo:hi] {
		out = append(out, m)
		if withScores {
			out = append(out, formatScore(item.ZSet[m]))
		}
	}
	return resp.NewBulkArray(out)
}

// ZCard handles the ZCARD command.
func ZCard(c *common.Client, args []string, s *Store) *resp.Value {
	item, err := s.Keyspace.DB(c).Lookup(args[0], common.ZSET_TYPE)
	if err != nil {
		return wrongType()
	}
	if item == nil {
		return resp.NewIntegerValue(0)
	}
	return resp.NewIntegerValue(int64(len(item.ZSet)))
}
