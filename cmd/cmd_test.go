package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/akashmaji946/go-redis-tx/datasource"
	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestDataSource(t *testing.T, poolSize int) *datasource.DataSource {
	t.Helper()
	srv := server.New(common.ServerConfig{Addr: "127.0.0.1:0", Databases: 1}, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })

	ds, err := datasource.NewDataSource(datasource.Options{
		Addr:     srv.Addr(),
		PoolSize: poolSize,
		Timeout:  5 * time.Second,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`set  greeting "hello world" ""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"set", "greeting", "hello world", ""}, args)

	args, err = splitArgs(`set k "a \"quoted\" word"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"set", "k", `a "quoted" word`}, args)

	_, err = splitArgs(`set k "open`)
	assert.Error(t, err)
}

func TestShellSession(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(newTestDataSource(t, 2), &out)
	ctx := context.Background()

	for _, line := range []string{
		"set k 1",
		"get k",
		"exec",
		"watch k",
		"multi",
		"incr k",
		"lpop k",
		"get k",
		"exec",
		"multi",
		"set k 5",
		"discard",
		"get k",
	} {
		args, err := splitArgs(line)
		require.NoError(t, err)
		sh.run(ctx, args)
	}

	want := []string{
		"OK",
		`"1"`,
		"(error) ERR EXEC without MULTI",
		"OK",
		"OK",
		"QUEUED",
		"QUEUED",
		"QUEUED",
		"1) (integer) 2",
		"2) (error) WRONGTYPE Operation against a key holding the wrong kind of value",
		`3) "2"`,
		"OK",
		"QUEUED",
		"OK",
		`"2"`,
	}
	assert.Equal(t, want, strings.Split(strings.TrimRight(out.String(), "\n"), "\n"))
}

func TestShellEarlyFailure(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(newTestDataSource(t, 2), &out)
	ctx := context.Background()

	for _, args := range [][]string{{"multi"}, {"nosuchcmd"}, {"exec"}} {
		sh.run(ctx, args)
	}
	assert.Contains(t, out.String(), "(error) transaction aborted by early failure on NOSUCHCMD")
}

func TestBenchCountsEveryIncrement(t *testing.T) {
	ds := newTestDataSource(t, 4)
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	opts := &benchOptions{workers: 4, ops: 25, key: "counter", maxRetries: 1000}
	require.NoError(t, runBench(context.Background(), ds, opts, zaptest.NewLogger(t), cmd))
	assert.Contains(t, out.String(), "final value: 100")

	v, err := datasource.Values[int64](ds).Get("counter").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
}
