/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/cmd/main.go
*/
package main

import (
	"fmt"
	"os"

	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootOptions is shared by every subcommand. cfg and logger are filled in by
// the root command before any subcommand runs.
type rootOptions struct {
	v          *viper.Viper
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:           "go-redis-tx",
		Short:         "Transactional datasource for redis-compatible stores",
		Long:          "go-redis-tx runs the in-memory store, an interactive shell over the datasource and an optimistic-locking benchmark.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML/TOML/JSON config file")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "console", "log format (console|json)")
	flags.String("log-output", "stderr", "log destination (stderr|stdout|<file>)")
	mustBindFlag(opts.v, "log.level", flags.Lookup("log-level"))
	mustBindFlag(opts.v, "log.format", flags.Lookup("log-format"))
	mustBindFlag(opts.v, "log.output", flags.Lookup("log-output"))

	// datasource flags, used by shell and bench
	flags.String("addr", config.DefaultAddr, "store address")
	flags.String("user", "", "AUTH username")
	flags.String("password", "", "AUTH password")
	flags.Int("db", 0, "database selected on every connection")
	flags.Int("pool-size", config.DefaultPoolSize, "maximum open connections")
	flags.Duration("timeout", config.DefaultTimeout, "bound for blocking calls without a deadline")
	mustBindFlag(opts.v, "client.addr", flags.Lookup("addr"))
	mustBindFlag(opts.v, "client.username", flags.Lookup("user"))
	mustBindFlag(opts.v, "client.password", flags.Lookup("password"))
	mustBindFlag(opts.v, "client.db", flags.Lookup("db"))
	mustBindFlag(opts.v, "client.pool_size", flags.Lookup("pool-size"))
	mustBindFlag(opts.v, "client.timeout", flags.Lookup("timeout"))

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newShellCommand(opts))
	cmd.AddCommand(newBenchCommand(opts))

	return cmd
}

func (o *rootOptions) load() error {
	if o.configPath != "" {
		o.v.SetConfigFile(o.configPath)
		if err := o.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", o.configPath)
		}
	}
	cfg, err := config.Load(o.v)
	if err != nil {
		return err
	}
	logger, err := common.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

func mustBindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
