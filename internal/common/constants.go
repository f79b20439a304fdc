/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/constants.go
*/
package common

import "strings"

// Data type names reported by TYPE and stored on every Item.
const (
	STRING_TYPE = "string"
	HASH_TYPE   = "hash"
	LIST_TYPE   = "list"
	SET_TYPE    = "set"
	ZSET_TYPE   = "zset"
	NONE_TYPE   = "none"
)

// Error messages shared by the server handlers and the tests that assert on them.
const (
	ERR_WRONGTYPE   = "WRONGTYPE Operation against a key holding the wrong kind of value"
	ERR_NOT_INTEGER = "ERR value is not an integer or out of range"
	ERR_NOT_FLOAT   = "ERR value is not a valid float"
	ERR_SYNTAX      = "ERR syntax error"
	ERR_EXECABORT   = "EXECABORT Transaction discarded because of previous errors."
)

// CommandInfo stores the metadata of one command.
//
// Arity follows the store's convention: it counts the command name itself,
// a positive value is an exact argument count and a negative value -N means
// "at least N".
type CommandInfo struct {
	Arity    int
	Category string
	Usage    string
}

// AcceptsArgs reports whether argc (command name included) satisfies the arity.
func (ci CommandInfo) AcceptsArgs(argc int) bool {
	if ci.Arity >= 0 {
		return argc == ci.Arity
	}
	return argc >= -ci.Arity
}

// CommandDetails maps upper-case command names to their metadata. Both the
// client-side validation in the datasource and the memstore dispatcher use it.
var CommandDetails = map[string]CommandInfo{
	// strings
	"GET":    {2, "string", "GET key"},
	"SET":    {-3, "string", "SET key value"},
	"SETNX":  {3, "string", "SETNX key value"},
	"SETEX":  {4, "string", "SETEX key seconds value"},
	"GETSET": {3, "string", "GETSET key value"},
	"MGET":   {-2, "string", "MGET key [key ...]"},
	"MSET":   {-3, "string", "MSET key value [key value ...]"},
	"INCR":   {2, "string", "INCR key"},
	"INCRBY": {3, "string", "INCRBY key increment"},
	"DECR":   {2, "string", "DECR key"},
	"DECRBY": {3, "string", "DECRBY key decrement"},
	"APPEND": {3, "string", "APPEND key value"},
	"STRLEN": {2, "string", "STRLEN key"},

	// hashes
	"HSET":    {-4, "hash", "HSET key field value [field value ...]"},
	"HMSET":   {-4, "hash", "HMSET key field value [field value ...]"},
	"HGET":    {3, "hash", "HGET key field"},
	"HEXISTS": {3, "hash", "HEXISTS key field"},
	"HDEL":    {-3, "hash", "HDEL key field [field ...]"},
	"HGETALL": {2, "hash", "HGETALL key"},
	"HINCRBY": {4, "hash", "HINCRBY key field increment"},
	"HLEN":    {2, "hash", "HLEN key"},
	"HKEYS":   {2, "hash", "HKEYS key"},
	"HVALS":   {2, "hash", "HVALS key"},

	// lists
	"LPUSH":  {-3, "list", "LPUSH key value [value ...]"},
	"RPUSH":  {-3, "list", "RPUSH key value [value ...]"},
	"LPOP":   {-2, "list", "LPOP key"},
	"RPOP":   {-2, "list", "RPOP key"},
	"LRANGE": {4, "list", "LRANGE key start stop"},
	"LLEN":   {2, "list", "LLEN key"},
	"LINDEX": {3, "list", "LINDEX key index"},

	// sets
	"SADD":      {-3, "set", "SADD key member [member ...]"},
	"SREM":      {-3, "set", "SREM key member [member ...]"},
	"SMEMBERS":  {2, "set", "SMEMBERS key"},
	"SISMEMBER": {3, "set", "SISMEMBER key member"},
	"SCARD":     {2, "set", "SCARD key"},

	// sorted sets
	"ZADD":    {-4, "zset", "ZADD key score member [score member ...]"},
	"ZINCRBY": {4, "zset", "ZINCRBY key increment member"},
	"ZSCORE":  {3, "zset", "ZSCORE key member"},
	"ZREM":    {-3, "zset", "ZREM key member [member ...]"},
	"ZRANGE":  {-4, "zset", "ZRANGE key start stop [WITHSCORES]"},
	"ZCARD":   {2, "zset", "ZCARD key"},

	// keys
	"DEL":    {-2, "key", "DEL key [key ...]"},
	"EXISTS": {-2, "key", "EXISTS key [key ...]"},
	"EXPIRE": {3, "key", "EXPIRE key seconds"},
	"TTL":    {2, "key", "TTL key"},
	"TYPE":   {2, "key", "TYPE key"},
	"RENAME": {3, "key", "RENAME key newkey"},

	// connection and server
	"PING":     {-1, "connection", "PING [message]"},
	"ECHO":     {2, "connection", "ECHO message"},
	"SELECT":   {2, "connection", "SELECT index"},
	"AUTH":     {-2, "connection", "AUTH [username] password"},
	"DBSIZE":   {1, "server", "DBSIZE"},
	"FLUSHDB":  {-1, "server", "FLUSHDB"},
	"FLUSHALL": {-1, "server", "FLUSHALL"},
	"INFO":     {-1, "server", "INFO [section]"},

	// transactions
	"MULTI":   {1, "transaction", "MULTI"},
	"EXEC":    {1, "transaction", "EXEC"},
	"DISCARD": {1, "transaction", "DISCARD"},
	"WATCH":   {-2, "transaction", "WATCH key [key ...]"},
	"UNWATCH": {1, "transaction", "UNWATCH"},
	"RESET":   {1, "connection", "RESET"},
}

// LookupCommand returns the metadata of a command, case-insensitively.
func LookupCommand(name string) (CommandInfo, bool) {
	ci, ok := CommandDetails[strings.ToUpper(name)]
	return ci, ok
}
