package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// startServer runs a memstore on a random port for the duration of the test.
func startServer(t *testing.T) string {
	t.Helper()
	srv := server.New(common.ServerConfig{Addr: "127.0.0.1:0", Databases: 4}, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Addr()
}

func testOptions(t *testing.T, addr string) Options {
	return Options{
		Addr:     addr,
		PoolSize: 4,
		Timeout:  5 * time.Second,
		Logger:   zaptest.NewLogger(t),
	}
}

func newBlocking(t *testing.T, opts Options) *DataSource {
	t.Helper()
	ds, err := NewDataSource(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func newReactive(t *testing.T, opts Options) *ReactiveDataSource {
	t.Helper()
	rds, err := NewReactiveDataSource(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rds.Close() })
	return rds
}

// await waits for f with a test-sized deadline.
func await[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Await(ctx)
}

// mustGet reads key outside of any transaction.
func mustGet(t *testing.T, ds *DataSource, key string) string {
	t.Helper()
	v, err := Values[string](ds).Get(key).Result()
	require.NoError(t, err)
	return v
}
