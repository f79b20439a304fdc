/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/values.go
*/
package datasource

import (
	"sort"

	"github.com/akashmaji946/go-redis-tx/internal/codec"
)

// ValueCommands groups the string commands for values of type V. It works
// the same on every Target: a datasource executes at once, a transaction
// queues.
type ValueCommands[V any] struct {
	t Target
}

// Values returns the string command group of t.
func Values[V any](t Target) ValueCommands[V] {
	return ValueCommands[V]{t: t}
}

// Get returns the value of key, the zero V when it does not exist.
func (c ValueCommands[V]) Get(key string) *Slot[V] {
	return submitAs(c.t, NewCommand("GET", key), codec.Decode[V])
}

func (c ValueCommands[V]) Set(key string, value V) *Slot[Void] {
	return submitVoid(c.t, NewCommand("SET", key, value))
}

// SetEx sets key with a time to live in seconds.
func (c ValueCommands[V]) SetEx(key string, seconds int64, value V) *Slot[Void] {
	return submitVoid(c.t, NewCommand("SETEX", key, seconds, value))
}

// SetNX sets key only when it does not exist and reports whether it did.
func (c ValueCommands[V]) SetNX(key string, value V) *Slot[bool] {
	return submitAs(c.t, NewCommand("SETNX", key, value), codec.Decode[bool])
}

func (c ValueCommands[V]) GetSet(key string, value V) *Slot[V] {
	return submitAs(c.t, NewCommand("GETSET", key, value), codec.Decode[V])
}

func (c ValueCommands[V]) MGet(keys ...string) *Slot[[]V] {
	return submitAs(c.t, NewCommand("MGET", strs(keys)...), codec.DecodeSlice[V])
}

// MSet sets every key of values. Keys are written in sorted order.
func (c ValueCommands[V]) MSet(values map[string]V) *Slot[Void] {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, values[k])
	}
	return submitVoid(c.t, NewCommand("MSET", args...))
}

func (c ValueCommands[V]) Incr(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("INCR", key), codec.Decode[int64])
}

func (c ValueCommands[V]) IncrBy(key string, amount int64) *Slot[int64] {
	return submitAs(c.t, NewCommand("INCRBY", key, amount), codec.Decode[int64])
}

func (c ValueCommands[V]) Decr(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("DECR", key), codec.Decode[int64])
}

func (c ValueCommands[V]) DecrBy(key string, amount int64) *Slot[int64] {
	return submitAs(c.t, NewCommand("DECRBY", key, amount), codec.Decode[int64])
}

// Append appends value to key and returns the new length.
func (c ValueCommands[V]) Append(key string, value V) *Slot[int64] {
	return submitAs(c.t, NewCommand("APPEND", key, value), codec.Decode[int64])
}

func (c ValueCommands[V]) StrLen(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("STRLEN", key), codec.Decode[int64])
}

// strs converts command arguments for NewCommand.
func strs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// withKey prepends key to vs.
func withKey[V any](key string, vs []V) []any {
	out := make([]any, 0, len(vs)+1)
	out = append(out, key)
	for _, v := range vs {
		out = append(out, v)
	}
	return out
}
