/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/config/config.go
*/

// Package config resolves go-redis-tx settings from defaults, an optional
// config file, GOREDIS_* environment variables and bound command-line flags.
package config

import (
	"strings"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// GOREDIS_CLIENT_POOL_SIZE for client.pool_size.
const EnvPrefix = "GOREDIS"

// Defaults.
const (
	DefaultAddr          = "127.0.0.1:7379"
	DefaultPoolSize      = 8
	DefaultDialTimeout   = 5 * time.Second
	DefaultTimeout       = 10 * time.Second
	DefaultDatabases     = 16
	DefaultMetricsListen = "127.0.0.1:9121"
)

// ClientConfig configures the datasource.
type ClientConfig struct {
	Addr        string        `mapstructure:"addr"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// Timeout bounds every blocking call that carries no deadline of its own.
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Config is the resolved configuration.
type Config struct {
	Client  ClientConfig        `mapstructure:"client"`
	Server  common.ServerConfig `mapstructure:"server"`
	Log     common.LogConfig    `mapstructure:"log"`
	Metrics MetricsConfig       `mapstructure:"metrics"`
}

// New returns a viper instance with defaults registered and environment
// lookup enabled. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("client.addr", DefaultAddr)
	v.SetDefault("client.username", "")
	v.SetDefault("client.password", "")
	v.SetDefault("client.db", 0)
	v.SetDefault("client.pool_size", DefaultPoolSize)
	v.SetDefault("client.dial_timeout", DefaultDialTimeout)
	v.SetDefault("client.timeout", DefaultTimeout)

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.databases", DefaultDatabases)
	v.SetDefault("server.requirepass", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", DefaultMetricsListen)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads the file at path (when non-empty) on top of the defaults and
// the environment.
func Read(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return Load(v)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the datasource or server cannot run with.
func (c *Config) Validate() error {
	if c.Client.PoolSize < 1 {
		return errors.Errorf("client.pool_size must be at least 1, got %d", c.Client.PoolSize)
	}
	if c.Client.Timeout <= 0 {
		return errors.Errorf("client.timeout must be positive, got %s", c.Client.Timeout)
	}
	if c.Client.DialTimeout <= 0 {
		return errors.Errorf("client.dial_timeout must be positive, got %s", c.Client.DialTimeout)
	}
	if c.Client.DB < 0 {
		return errors.Errorf("client.db must not be negative, got %d", c.Client.DB)
	}
	if c.Server.Databases < 1 {
		return errors.Errorf("server.databases must be at least 1, got %d", c.Server.Databases)
	}
	return nil
}
