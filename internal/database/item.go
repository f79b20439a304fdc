/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/database/item.go
*/
package database

import (
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
)

// Item represents a value stored in the database together with its metadata.
//
// Fields:
//   - Type: one of the common.*_TYPE names
//   - Str: string value
//   - Hash: field -> value for hashes
//   - List: list elements, head first
//   - ItemSet: members of a set
//   - ZSet: member -> score of a sorted set
//   - Exp: the expiration time; the zero time means no expiration
type Item struct {
	Type string

	Str     string
	Hash    map[string]string
	List    []string
	ItemSet map[string]struct{}
	ZSet    map[string]float64

	Exp time.Time
}

// NewStringItem creates a string item without expiration.
func NewStringItem(s string) *Item {
	return &Item{Type: common.STRING_TYPE, Str: s}
}

// NewHashItem creates an empty hash item.
func NewHashItem() *Item {
	return &Item{Type: common.HASH_TYPE, Hash: make(map[string]string)}
}

// NewListItem creates an empty list item.
func NewListItem() *Item {
	return &Item{Type: common.LIST_TYPE}
}

// NewSetItem creates an empty set item.
func NewSetItem() *Item {
	return &Item{Type: common.SET_TYPE, ItemSet: make(map[string]struct{})}
}

// NewZSetItem creates an empty sorted set item.
func NewZSetItem() *Item {
	return &Item{Type: common.ZSET_TYPE, ZSet: make(map[string]float64)}
}

// IsExpired reports whether the item carries an expiration that has passed.
func (item *Item) IsExpired() bool {
	return !item.Exp.IsZero() && !time.Now().Before(item.Exp)
}

// IsEmpty reports whether a container item holds no elements. Containers are
// removed from the keyspace once they become empty.
func (item *Item) IsEmpty() bool {
	switch item.Type {
	case common.HASH_TYPE:
		return len(item.Hash) == 0
	case common.LIST_TYPE:
		return len(item.List) == 0
	case common.SET_TYPE:
		return len(item.ItemSet) == 0
	case common.ZSET_TYPE:
		return len(item.ZSet) == 0
	}
	return false
}
