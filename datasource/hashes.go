/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/hashes.go
*/
package datasource

import (
	"sort"

	"github.com/akashmaji946/go-redis-tx/internal/codec"
)

// HashCommands groups the hash commands for field values of type V.
type HashCommands[V any] struct {
	t Target
}

// Hashes returns the hash command group of t.
func Hashes[V any](t Target) HashCommands[V] {
	return HashCommands[V]{t: t}
}

// HSet sets one field and reports whether it was created.
func (c HashCommands[V]) HSet(key, field string, value V) *Slot[bool] {
	return submitAs(c.t, NewCommand("HSET", key, field, value), codec.Decode[bool])
}

// HMSet sets every field of values. An empty map is an invalid command.
func (c HashCommands[V]) HMSet(key string, values map[string]V) *Slot[Void] {
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	args := make([]any, 0, 1+2*len(fields))
	args = append(args, key)
	for _, f := range fields {
		args = append(args, f, values[f])
	}
	return submitVoid(c.t, NewCommand("HMSET", args...))
}

func (c HashCommands[V]) HGet(key, field string) *Slot[V] {
	return submitAs(c.t, NewCommand("HGET", key, field), codec.Decode[V])
}

func (c HashCommands[V]) HExists(key, field string) *Slot[bool] {
	return submitAs(c.t, NewCommand("HEXISTS", key, field), codec.Decode[bool])
}

// HDel removes fields and returns how many existed.
func (c HashCommands[V]) HDel(key string, fields ...string) *Slot[int64] {
	return submitAs(c.t, NewCommand("HDEL", withKey(key, fields)...), codec.Decode[int64])
}

func (c HashCommands[V]) HGetAll(key string) *Slot[map[string]V] {
	return submitAs(c.t, NewCommand("HGETALL", key), codec.DecodeMap[V])
}

func (c HashCommands[V]) HIncrBy(key, field string, amount int64) *Slot[int64] {
	return submitAs(c.t, NewCommand("HINCRBY", key, field, amount), codec.Decode[int64])
}

func (c HashCommands[V]) HLen(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("HLEN", key), codec.Decode[int64])
}

func (c HashCommands[V]) HKeys(key string) *Slot[[]string] {
	return submitAs(c.t, NewCommand("HKEYS", key), codec.DecodeSlice[string])
}

func (c HashCommands[V]) HVals(key string) *Slot[[]V] {
	return submitAs(c.t, NewCommand("HVALS", key), codec.DecodeSlice[V])
}
