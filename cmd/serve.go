/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/cmd/serve.go
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashmaji946/go-redis-tx/internal/config"
	"github.com/akashmaji946/go-redis-tx/internal/metrics"
	"github.com/akashmaji946/go-redis-tx/internal/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory store",
		Long: `Run the in-memory RESP store until SIGINT or SIGTERM.

The store speaks the subset of the redis protocol the datasource needs:
strings, hashes, lists, sets, sorted sets, key expiry and MULTI/EXEC with
WATCH. Nothing is persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", config.DefaultAddr, "TCP listen address")
	flags.Int("databases", config.DefaultDatabases, "number of logical databases")
	flags.String("requirepass", "", "password required by AUTH")
	flags.Bool("metrics", false, "serve Prometheus metrics")
	flags.String("metrics-listen", config.DefaultMetricsListen, "metrics listen address")
	mustBindFlag(opts.v, "server.addr", flags.Lookup("listen"))
	mustBindFlag(opts.v, "server.databases", flags.Lookup("databases"))
	mustBindFlag(opts.v, "server.requirepass", flags.Lookup("requirepass"))
	mustBindFlag(opts.v, "metrics.enabled", flags.Lookup("metrics"))
	mustBindFlag(opts.v, "metrics.listen", flags.Lookup("metrics-listen"))

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.logger
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, shutdown, err := metrics.Setup(opts.cfg.Metrics, "go-redis-tx-server", logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	srv := server.New(opts.cfg.Server, logger)
	if err := srv.Start(); err != nil {
		return errors.Wrap(err, "start memstore")
	}
	reg, err := metrics.RegisterServer(tel.MeterProvider, srv.Stats(), srv.Clients)
	if err != nil {
		_ = srv.Close()
		return errors.Wrap(err, "register server metrics")
	}
	defer func() { _ = reg.Unregister() }()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return srv.Close()
}
