package server

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/akashmaji946/go-redis-tx/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

// scenario is a scripted conversation between one or more clients and a
// fresh server. Replies are compared in their redis-cli rendering.
type scenario struct {
	Name        string `yaml:"name"`
	Requirepass string `yaml:"requirepass"`
	Clients     int    `yaml:"clients"`
	Steps       []step `yaml:"steps"`
}

type step struct {
	Client int      `yaml:"client"`
	Send   []string `yaml:"send"`
	Expect string   `yaml:"expect"`
}

func loadScenario(t *testing.T, path string) scenario {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var sc scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	require.NoError(t, dec.Decode(&sc), path)
	require.NotEmpty(t, sc.Name, path)
	require.NotEmpty(t, sc.Steps, path)
	return sc
}

func startServer(t *testing.T, cfg common.ServerConfig) *Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		sc := loadScenario(t, f)
		t.Run(sc.Name, func(t *testing.T) {
			srv := startServer(t, common.ServerConfig{Databases: 16, Requirepass: sc.Requirepass})
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conns := make([]*transport.Conn, max(sc.Clients, 1))
			for i := range conns {
				c, err := transport.Dial(ctx, srv.Addr(), transport.DialOptions{DialTimeout: time.Second})
				require.NoError(t, err)
				t.Cleanup(func() { _ = c.Close() })
				conns[i] = c
			}

			for i, st := range sc.Steps {
				require.Less(t, st.Client, len(conns), "step %d", i)
				v, err := conns[st.Client].Do(ctx, st.Send...)
				require.NoError(t, err, "step %d: %v", i, st.Send)
				assert.Equal(t, st.Expect, v.String(), "step %d: %v", i, st.Send)
			}
		})
	}
}

func TestCountersFollowTransactions(t *testing.T) {
	srv := startServer(t, common.ServerConfig{})
	ctx := context.Background()
	c, err := transport.Dial(ctx, srv.Addr(), transport.DialOptions{DialTimeout: time.Second})
	require.NoError(t, err)
	defer c.Close()

	for _, args := range [][]string{
		{"MULTI"}, {"SET", "k", "v"}, {"EXEC"},
		{"MULTI"}, {"NOSUCHCMD"}, {"EXEC"},
	} {
		_, err := c.Do(ctx, args...)
		require.NoError(t, err)
	}

	stats := srv.Stats()
	assert.Equal(t, int64(1), stats.TotalTxnExecuted.Load())
	assert.Equal(t, int64(1), stats.TotalTxnAborted.Load())
	assert.Equal(t, int64(6), stats.TotalCommandsExecuted.Load())
}

func TestProtocolErrorClosesConnection(t *testing.T) {
	srv := startServer(t, common.ServerConfig{})

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte("+not a command\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	v, err := resp.ReadValue(r)
	require.NoError(t, err)
	require.True(t, v.IsError())
	assert.Contains(t, v.Err, "ERR Protocol error")

	_, err = resp.ReadValue(r)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := New(common.ServerConfig{Addr: "127.0.0.1:0"}, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())

	c, err := transport.Dial(context.Background(), srv.Addr(), transport.DialOptions{DialTimeout: time.Second})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())

	_, err = c.Do(context.Background(), "PING")
	assert.Error(t, err)
}
