/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/cmd/bench.go
*/
package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akashmaji946/go-redis-tx/datasource"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type benchOptions struct {
	workers    int
	ops        int
	rate       float64
	key        string
	maxRetries int
}

func newBenchCommand(root *rootOptions) *cobra.Command {
	opts := &benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Contend on one counter with optimistic transactions",
		Long: `Run concurrent read-modify-write increments of a single key.

Every increment reads the counter after WATCH, then writes counter+1 inside
MULTI/EXEC and retries when the watch fires. The final value is checked
against the number of increments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ds, err := datasource.NewDataSource(root.clientOptions())
			if err != nil {
				return err
			}
			defer ds.Close()
			return runBench(ctx, ds, opts, root.logger, cmd)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.workers, "workers", "w", 8, "concurrent workers")
	flags.IntVarP(&opts.ops, "ops", "n", 1000, "increments per worker")
	flags.Float64Var(&opts.rate, "rate", 0, "overall increments per second (0 = unlimited)")
	flags.StringVar(&opts.key, "key", "bench:counter", "counter key")
	flags.IntVar(&opts.maxRetries, "max-retries", 100, "give up an increment after this many aborted attempts")
	return cmd
}

type benchStats struct {
	commits atomic.Int64
	retries atomic.Int64
}

func runBench(ctx context.Context, ds *datasource.DataSource, opts *benchOptions, logger *zap.Logger, cmd *cobra.Command) error {
	if opts.workers < 1 || opts.ops < 1 {
		return errors.New("workers and ops must be positive")
	}
	if _, err := datasource.Keys(ds).Del(opts.key).Result(); err != nil {
		return errors.Wrap(err, "reset counter")
	}

	limit := rate.Inf
	if opts.rate > 0 {
		limit = rate.Limit(opts.rate)
	}
	limiter := rate.NewLimiter(limit, opts.workers)

	var (
		stats    benchStats
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opts.ops; i++ {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				if err := increment(ctx, ds, opts, &stats); err != nil {
					errOnce.Do(func() {
						firstErr = errors.Wrapf(err, "worker %d", worker)
						cancel()
					})
					return
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if firstErr != nil {
		return firstErr
	}

	final, err := datasource.Values[int64](ds).Get(opts.key).Result()
	if err != nil {
		return errors.Wrap(err, "read counter")
	}
	want := int64(opts.workers) * int64(opts.ops)
	commits := stats.commits.Load()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "increments: %s in %s (%s/s)\n",
		humanize.Comma(commits), elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(float64(commits)/elapsed.Seconds(), 1))
	fmt.Fprintf(out, "cas retries: %s (%.1f%%)\n",
		humanize.Comma(stats.retries.Load()), 100*float64(stats.retries.Load())/float64(max(commits, 1)))
	fmt.Fprintf(out, "final value: %s\n", humanize.Comma(final))
	logger.Debug("bench finished", zap.Int64("commits", commits), zap.Int64("retries", stats.retries.Load()))

	if final != want {
		return errors.Errorf("lost updates: counter is %d, want %d", final, want)
	}
	return nil
}

// increment retries the read-modify-write until a commit or maxRetries
// aborted attempts.
func increment(ctx context.Context, ds *datasource.DataSource, opts *benchOptions, stats *benchStats) error {
	for attempt := 0; attempt <= opts.maxRetries; attempt++ {
		res, err := datasource.WithOptimisticTransaction(ctx, ds,
			func(pre *datasource.DataSource) (int64, error) {
				return datasource.Values[int64](pre).Get(opts.key).Result()
			},
			func(cur int64, tx *datasource.Tx) error {
				datasource.Values[int64](tx).Set(opts.key, cur+1)
				return nil
			},
			opts.key,
		)
		if err != nil {
			return err
		}
		if !res.Discarded() {
			stats.commits.Add(1)
			return nil
		}
		stats.retries.Add(1)
	}
	return errors.Errorf("increment of %s aborted %d times", opts.key, opts.maxRetries+1)
}
