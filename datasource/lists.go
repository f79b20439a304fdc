/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/lists.go
*/
package datasource

import "github.com/akashmaji946/go-redis-tx/internal/codec"

// ListCommands groups the list commands for elements of type V.
type ListCommands[V any] struct {
	t Target
}

// Lists returns the list command group of t.
func Lists[V any](t Target) ListCommands[V] {
	return ListCommands[V]{t: t}
}

// LPush prepends values and returns the new length.
func (c ListCommands[V]) LPush(key string, values ...V) *Slot[int64] {
	return submitAs(c.t, NewCommand("LPUSH", withKey(key, values)...), codec.Decode[int64])
}

// RPush appends values and returns the new length.
func (c ListCommands[V]) RPush(key string, values ...V) *Slot[int64] {
	return submitAs(c.t, NewCommand("RPUSH", withKey(key, values)...), codec.Decode[int64])
}

// LPop removes the first element. An empty list yields the zero V.
func (c ListCommands[V]) LPop(key string) *Slot[V] {
	return submitAs(c.t, NewCommand("LPOP", key), codec.Decode[V])
}

// LPopCount removes up to count elements from the head.
func (c ListCommands[V]) LPopCount(key string, count int64) *Slot[[]V] {
	return submitAs(c.t, NewCommand("LPOP", key, count), codec.DecodeSlice[V])
}

func (c ListCommands[V]) RPop(key string) *Slot[V] {
	return submitAs(c.t, NewCommand("RPOP", key), codec.Decode[V])
}

func (c ListCommands[V]) RPopCount(key string, count int64) *Slot[[]V] {
	return submitAs(c.t, NewCommand("RPOP", key, count), codec.DecodeSlice[V])
}

// LRange returns the elements between start and stop, both inclusive.
// Negative indexes count from the tail.
func (c ListCommands[V]) LRange(key string, start, stop int64) *Slot[[]V] {
	return submitAs(c.t, NewCommand("LRANGE", key, start, stop), codec.DecodeSlice[V])
}

func (c ListCommands[V]) LLen(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("LLEN", key), codec.Decode[int64])
}

func (c ListCommands[V]) LIndex(key string, index int64) *Slot[V] {
	return submitAs(c.t, NewCommand("LINDEX", key, index), codec.Decode[V])
}
