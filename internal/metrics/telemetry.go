/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/metrics/telemetry.go
*/
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Telemetry holds the providers handed to the datasource.
type Telemetry struct {
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
	// Addr is the address of the /metrics endpoint, empty when disabled.
	Addr string
}

// ShutdownFunc flushes and stops the providers and the metrics endpoint.
type ShutdownFunc func(ctx context.Context) error

// Setup builds the telemetry stack. When cfg is disabled it returns no-op
// providers. Otherwise metrics go through the OpenTelemetry Prometheus
// exporter into a private registry served at http://<cfg.Listen>/metrics.
func Setup(cfg config.MetricsConfig, serviceName string, logger *zap.Logger) (*Telemetry, ShutdownFunc, error) {
	if !cfg.Enabled {
		return &Telemetry{
			MeterProvider:  noop.NewMeterProvider(),
			TracerProvider: nooptrace.NewTracerProvider(),
		}, func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create resource")
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create prometheus exporter")
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen on %s", cfg.Listen)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()))

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "shutdown metrics endpoint")
		}
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "shutdown tracer provider")
		}
		if err := meterProvider.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "shutdown meter provider")
		}
		return nil
	}

	return &Telemetry{
		MeterProvider:  meterProvider,
		TracerProvider: tracerProvider,
		Addr:           ln.Addr().String(),
	}, shutdown, nil
}
