package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDefaults(t *testing.T) {
	cfg, err := Read("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Client.Addr)
	assert.Equal(t, DefaultPoolSize, cfg.Client.PoolSize)
	assert.Equal(t, DefaultDialTimeout, cfg.Client.DialTimeout)
	assert.Equal(t, DefaultTimeout, cfg.Client.Timeout)
	assert.Equal(t, DefaultDatabases, cfg.Server.Databases)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestReadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goredis.yaml")
	content := `
client:
  addr: 10.0.0.1:6379
  pool_size: 3
  timeout: 250ms
server:
  requirepass: secret
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("GOREDIS_CLIENT_DB", "4")
	t.Setenv("GOREDIS_SERVER_DATABASES", "2")

	cfg, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:6379", cfg.Client.Addr)
	assert.Equal(t, 3, cfg.Client.PoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Timeout)
	assert.Equal(t, 4, cfg.Client.DB)
	assert.Equal(t, 2, cfg.Server.Databases)
	assert.Equal(t, "secret", cfg.Server.Requirepass)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	v := New()
	v.Set("client.pool_size", 0)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool_size")

	v = New()
	v.Set("client.timeout", "0s")
	_, err = Load(v)
	require.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
