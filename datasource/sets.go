/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/sets.go
*/
package datasource

import "github.com/akashmaji946/go-redis-tx/internal/codec"

// SetCommands groups the set commands for members of type V.
type SetCommands[V any] struct {
	t Target
}

// Sets returns the set command group of t.
func Sets[V any](t Target) SetCommands[V] {
	return SetCommands[V]{t: t}
}

// SAdd adds members and returns how many were new.
func (c SetCommands[V]) SAdd(key string, members ...V) *Slot[int64] {
	return submitAs(c.t, NewCommand("SADD", withKey(key, members)...), codec.Decode[int64])
}

func (c SetCommands[V]) SRem(key string, members ...V) *Slot[int64] {
	return submitAs(c.t, NewCommand("SREM", withKey(key, members)...), codec.Decode[int64])
}

// SMembers returns the members in lexical order of their encoding.
func (c SetCommands[V]) SMembers(key string) *Slot[[]V] {
	return submitAs(c.t, NewCommand("SMEMBERS", key), codec.DecodeSlice[V])
}

func (c SetCommands[V]) SIsMember(key string, member V) *Slot[bool] {
	return submitAs(c.t, NewCommand("SISMEMBER", key, member), codec.Decode[bool])
}

func (c SetCommands[V]) SCard(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("SCARD", key), codec.Decode[int64])
}
