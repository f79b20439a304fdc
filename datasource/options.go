/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/options.go
*/
package datasource

import (
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/config"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures a datasource. Zero values take the defaults of the
// config package.
type Options struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	// Timeout bounds blocking calls whose context has no deadline.
	Timeout time.Duration

	Logger         *zap.Logger
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// OptionsFromConfig converts the client section of the configuration.
func OptionsFromConfig(c config.ClientConfig) Options {
	return Options{
		Addr:        c.Addr,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: c.DialTimeout,
		Timeout:     c.Timeout,
	}
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = config.DefaultAddr
	}
	if o.PoolSize <= 0 {
		o.PoolSize = config.DefaultPoolSize
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = config.DefaultDialTimeout
	}
	if o.Timeout <= 0 {
		o.Timeout = config.DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
