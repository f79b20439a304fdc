/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/keys.go
*/
package datasource

import (
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/codec"
)

// KeyCommands groups the commands that work on keys of any type.
type KeyCommands struct {
	t Target
}

// Keys returns the key command group of t.
func Keys(t Target) KeyCommands {
	return KeyCommands{t: t}
}

// Del removes keys and returns how many existed.
func (c KeyCommands) Del(keys ...string) *Slot[int64] {
	return submitAs(c.t, NewCommand("DEL", strs(keys)...), codec.Decode[int64])
}

func (c KeyCommands) Exists(keys ...string) *Slot[int64] {
	return submitAs(c.t, NewCommand("EXISTS", strs(keys)...), codec.Decode[int64])
}

// Expire sets a time to live, truncated to whole seconds. It reports
// whether the key exists.
func (c KeyCommands) Expire(key string, ttl time.Duration) *Slot[bool] {
	return submitAs(c.t, NewCommand("EXPIRE", key, int64(ttl/time.Second)), codec.Decode[bool])
}

// TTL returns the remaining time to live in seconds, -1 for a key without
// expiry and -2 for a missing key.
func (c KeyCommands) TTL(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("TTL", key), codec.Decode[int64])
}

// Type returns the type name of key, "none" when it does not exist.
func (c KeyCommands) Type(key string) *Slot[string] {
	return submitAs(c.t, NewCommand("TYPE", key), codec.Decode[string])
}

func (c KeyCommands) Rename(key, newKey string) *Slot[Void] {
	return submitVoid(c.t, NewCommand("RENAME", key, newKey))
}
