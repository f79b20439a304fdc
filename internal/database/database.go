/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/database/database.go
*/
package database

import (
	"context"
	"sync"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrWrongType is returned by the typed accessors when the key holds a
// different kind of value.
var ErrWrongType = errors.New(common.ERR_WRONGTYPE)

// Database represents one logical in-memory key-value store.
//
// Fields:
//   - Store: key -> Item
//   - Watchers: key -> clients that WATCHed it; a write to the key flags them
//   - ID: the index used by SELECT
//
// Thread Safety:
//   - A Database has no lock of its own. Every method expects the caller to
//     hold Keyspace.Mu, which serializes all commands and makes EXEC atomic.
type Database struct {
	Store    map[string]*Item
	Watchers map[string][]*common.Client
	ID       int

	expired func()
}

// NewDatabase creates and returns a new empty Database instance.
func NewDatabase(id int) *Database {
	return &Database{
		Store:    make(map[string]*Item),
		Watchers: make(map[string][]*common.Client),
		ID:       id,
	}
}

// Poll returns the live item stored under k. An expired item is removed on
// the way and reported as missing.
func (DB *Database) Poll(k string) (*Item, bool) {
	item, ok := DB.Store[k]
	if !ok {
		return nil, false
	}
	if item.IsExpired() {
		DB.Rem(k)
		if DB.expired != nil {
			DB.expired()
		}
		return nil, false
	}
	return item, true
}

// Put stores item under k, replacing whatever was there, and notifies watchers.
func (DB *Database) Put(k string, item *Item) {
	DB.Store[k] = item
	DB.Touch(k)
}

// Rem removes k and notifies watchers. Removing a missing key is a no-op.
func (DB *Database) Rem(k string) bool {
	if _, ok := DB.Store[k]; !ok {
		return false
	}
	delete(DB.Store, k)
	DB.Touch(k)
	return true
}

// Lookup returns the item under k when it has type typ. A missing key returns
// (nil, nil); a key of another type returns ErrWrongType.
func (DB *Database) Lookup(k, typ string) (*Item, error) {
	item, ok := DB.Poll(k)
	if !ok {
		return nil, nil
	}
	if item.Type != typ {
		return nil, ErrWrongType
	}
	return item, nil
}

// LookupOrCreate is Lookup that creates the item with create when k is missing.
// The new item is not stored until the caller calls Put.
func (DB *Database) LookupOrCreate(k, typ string, create func() *Item) (*Item, error) {
	item, err := DB.Lookup(k, typ)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = create()
	}
	return item, nil
}

// Save stores a modified container item, dropping the key when it is empty.
func (DB *Database) Save(k string, item *Item) {
	if item.IsEmpty() {
		DB.Rem(k)
		return
	}
	DB.Put(k, item)
}

// Size returns the number of keys, expired ones included until they are polled.
func (DB *Database) Size() int {
	return len(DB.Store)
}

// Flush removes every key and fails every watching client.
func (DB *Database) Flush() {
	DB.Store = make(map[string]*Item)
	DB.TouchAll()
}

// Watch registers client as a watcher of key.
func (DB *Database) Watch(key string, client *common.Client) {
	for _, c := range DB.Watchers[key] {
		if c == client {
			return
		}
	}
	DB.Watchers[key] = append(DB.Watchers[key], client)
}

// Unwatch removes client from the watcher list of key.
func (DB *Database) Unwatch(key string, client *common.Client) {
	clients := DB.Watchers[key]
	for i, c := range clients {
		if c == client {
			clients = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(clients) == 0 {
		delete(DB.Watchers, key)
		return
	}
	DB.Watchers[key] = clients
}

// Touch marks all clients watching the given key as having a failed transaction.
// This is used for optimistic locking (WATCH/MULTI/EXEC).
func (DB *Database) Touch(key string) {
	if clients, ok := DB.Watchers[key]; ok {
		for _, client := range clients {
			client.TxFailed = true
		}
		// Once a key is touched, we clear its watchers
		delete(DB.Watchers, key)
	}
}

// TouchAll marks all clients watching any key as having a failed transaction.
func (DB *Database) TouchAll() {
	for _, clients := range DB.Watchers {
		for _, client := range clients {
			client.TxFailed = true
		}
	}
	DB.Watchers = make(map[string][]*common.Client)
}

// watchRef remembers which database a WATCHed key belongs to.
type watchRef struct {
	db  int
	key string
}

// Keyspace is the set of logical databases of one server together with the
// lock that serializes command execution across all of them.
type Keyspace struct {
	Mu  sync.Mutex
	DBS []*Database

	watches map[*common.Client][]watchRef
}

// NewKeyspace creates n empty databases.
func NewKeyspace(n int, state *common.AppState) *Keyspace {
	if n <= 0 {
		n = 1
	}
	ks := &Keyspace{
		DBS:     make([]*Database, n),
		watches: make(map[*common.Client][]watchRef),
	}
	for i := range ks.DBS {
		ks.DBS[i] = NewDatabase(i)
		ks.DBS[i].expired = func() {
			if state != nil {
				state.GenStats.TotalExpiredKeys.Add(1)
			}
		}
	}
	return ks
}

// DB returns the database selected by client.
func (ks *Keyspace) DB(client *common.Client) *Database {
	return ks.DBS[client.DatabaseID]
}

// FlushAll clears all data from all logical databases.
func (ks *Keyspace) FlushAll() {
	for _, db := range ks.DBS {
		db.Flush()
	}
}

// Watch registers client on keys of its selected database.
func (ks *Keyspace) Watch(client *common.Client, keys ...string) {
	db := ks.DB(client)
	for _, k := range keys {
		db.Watch(k, client)
		ks.watches[client] = append(ks.watches[client], watchRef{db: db.ID, key: k})
		client.WatchedKeys = append(client.WatchedKeys, k)
	}
}

// UnwatchAll forgets every key the client watches and clears its CAS flag.
func (ks *Keyspace) UnwatchAll(client *common.Client) {
	for _, ref := range ks.watches[client] {
		ks.DBS[ref.db].Unwatch(ref.key, client)
	}
	delete(ks.watches, client)
	client.WatchedKeys = client.WatchedKeys[:0]
	client.TxFailed = false
}

// ActiveExpire periodically samples keys and removes expired ones until ctx
// is done. This prevents memory leaks from expired keys that are never accessed.
func (ks *Keyspace) ActiveExpire(ctx context.Context, logger *zap.Logger) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		ks.Mu.Lock()
		removed := 0
		for _, db := range ks.DBS {
			// Sample up to 20 keys (Redis default behavior)
			iterationCount := 0
			for k := range db.Store {
				if _, ok := db.Poll(k); !ok {
					removed++
				}
				iterationCount++
				if iterationCount >= 20 {
					break
				}
			}
		}
		ks.Mu.Unlock()
		if removed > 0 {
			logger.Debug("expired keys removed", zap.Int("count", removed))
		}
	}
}
