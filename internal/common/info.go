/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/info.go
*/
package common

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// RedisInfo holds server information organized into categories for the INFO command.
// Each category is a map of key-value pairs that will be formatted and displayed.
type RedisInfo struct {
	server  map[string]string
	clients map[string]string
	memory  map[string]string
	stats   map[string]string
}

// NewRedisInfo creates and returns a new RedisInfo instance.
func NewRedisInfo() *RedisInfo {
	return &RedisInfo{}
}

// Build populates the RedisInfo structure with current server statistics.
//
// Parameters:
//   - state: The application state containing server statistics and configuration
//   - keys: The number of keys in the database of the calling client
//
// Categories populated:
//   - server: Version, PID, listen address, uptime
//   - clients: Number of connected clients
//   - memory: Host memory as reported by the operating system
//   - stats: Connections, commands, transactions, expired keys
func (info *RedisInfo) Build(state *AppState, keys int) {
	info.server = map[string]string{
		"redis_version":  "v1.0.0",
		"process_id":     strconv.Itoa(os.Getpid()),
		"tcp_addr":       state.Config.Addr,
		"uptime_seconds": fmt.Sprint(int64(time.Since(state.ServerStartTime).Seconds())),
	}

	info.clients = map[string]string{
		"connected_clients": fmt.Sprint(state.NumClients.Load()),
	}

	var total, available uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
		available = vm.Available
	}
	info.memory = map[string]string{
		"total_system_memory":     fmt.Sprint(total),
		"available_system_memory": fmt.Sprint(available),
	}

	info.stats = map[string]string{
		"total_connections_received": fmt.Sprint(state.GenStats.TotalConnectionsReceived.Load()),
		"total_commands_processed":   fmt.Sprint(state.GenStats.TotalCommandsExecuted.Load()),
		"total_txn_executed":         fmt.Sprint(state.GenStats.TotalTxnExecuted.Load()),
		"total_txn_aborted":          fmt.Sprint(state.GenStats.TotalTxnAborted.Load()),
		"expired_keys":               fmt.Sprint(state.GenStats.TotalExpiredKeys.Load()),
		"db_keys":                    fmt.Sprint(keys),
	}
}

// PrintCategory formats a category header and its key-value pairs, sorted by key.
//
// Format:
//
//	# <header>
//	<key>:<value>
//	...
func (info *RedisInfo) PrintCategory(header string, m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\r\n", header)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s:%s\r\n", k, m[k])
	}
	return sb.String()
}

// Print builds every category and returns the INFO payload. A non-empty
// section restricts the output to that category (case-insensitive).
func (info *RedisInfo) Print(state *AppState, keys int, section string) string {
	info.Build(state, keys)

	categories := []struct {
		name string
		m    map[string]string
	}{
		{"Server", info.server},
		{"Clients", info.clients},
		{"Memory", info.memory},
		{"Stats", info.stats},
	}

	var sb strings.Builder
	for _, c := range categories {
		if section != "" && !strings.EqualFold(section, c.name) {
			continue
		}
		sb.WriteString(info.PrintCategory(c.name, c.m))
		sb.WriteString("\r\n")
	}
	return sb.String()
}
