/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/cmd/shell.go
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akashmaji946/go-redis-tx/datasource"
	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newShellCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell over the datasource",
		Long: `Open an interactive shell against a store.

Plain commands run on a pooled connection. WATCH and MULTI start a
transaction whose commands are collected locally and run through the
datasource when EXEC is entered; DISCARD drops them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datasource.NewDataSource(opts.clientOptions())
			if err != nil {
				return err
			}
			defer ds.Close()
			return newShell(ds, cmd.OutOrStdout()).loop(cmd.Context())
		},
	}
}

func (o *rootOptions) clientOptions() datasource.Options {
	dsOpts := datasource.OptionsFromConfig(o.cfg.Client)
	dsOpts.Logger = o.logger
	return dsOpts
}

// shell keeps the WATCH/MULTI state of the interactive session.
type shell struct {
	ds  *datasource.DataSource
	out io.Writer

	watched []string
	inMulti bool
	queued  [][]string
}

func newShell(ds *datasource.DataSource, out io.Writer) *shell {
	return &shell{ds: ds, out: out}
}

func (s *shell) loop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	home, _ := os.UserHomeDir()
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "go-redis-tx> ",
		HistoryFile:       filepath.Join(home, ".go-redis-tx_history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		return errors.Wrap(err, "open terminal")
	}
	defer l.Close()

	for {
		line, err := l.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			continue
		}
		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintln(s.out, "(error)", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if name := strings.ToLower(args[0]); name == "exit" || name == "quit" {
			return nil
		}
		s.run(ctx, args)
	}
}

// run handles one shell line.
func (s *shell) run(ctx context.Context, args []string) {
	switch strings.ToUpper(args[0]) {
	case "WATCH":
		if s.inMulti {
			fmt.Fprintln(s.out, "(error) ERR WATCH inside MULTI is not allowed")
			return
		}
		s.watched = append(s.watched, args[1:]...)
		fmt.Fprintln(s.out, "OK")
	case "UNWATCH":
		s.watched = nil
		fmt.Fprintln(s.out, "OK")
	case "MULTI":
		if s.inMulti {
			fmt.Fprintln(s.out, "(error) ERR MULTI calls can not be nested")
			return
		}
		s.inMulti = true
		fmt.Fprintln(s.out, "OK")
	case "DISCARD":
		if !s.inMulti {
			fmt.Fprintln(s.out, "(error) ERR DISCARD without MULTI")
			return
		}
		s.reset()
		fmt.Fprintln(s.out, "OK")
	case "EXEC":
		if !s.inMulti {
			fmt.Fprintln(s.out, "(error) ERR EXEC without MULTI")
			return
		}
		s.exec(ctx)
	default:
		if s.inMulti {
			s.queued = append(s.queued, args)
			fmt.Fprintln(s.out, "QUEUED")
			return
		}
		v, err := datasource.Execute(s.ds, args[0], toArgs(args[1:])...).Result()
		if err != nil {
			fmt.Fprintln(s.out, "(error)", err)
			return
		}
		fmt.Fprintln(s.out, v.String())
	}
}

func (s *shell) exec(ctx context.Context) {
	queued, watched := s.queued, s.watched
	s.reset()

	res, err := s.ds.WithTransaction(ctx, func(tx *datasource.Tx) error {
		for _, args := range queued {
			datasource.Execute(tx, args[0], toArgs(args[1:])...)
		}
		return nil
	}, watched...)
	if err != nil {
		fmt.Fprintln(s.out, "(error)", err)
		return
	}
	s.printResult(res)
}

func (s *shell) printResult(res *datasource.TransactionResult) {
	if res.Discarded() {
		fmt.Fprintln(s.out, "(nil)")
		return
	}
	if res.Size() == 0 {
		fmt.Fprintln(s.out, "(empty array)")
		return
	}
	for i := 0; i < res.Size(); i++ {
		if err := res.Err(i); err != nil {
			fmt.Fprintf(s.out, "%d) (error) %v\n", i+1, err)
			continue
		}
		v, err := datasource.ResultAs[datasource.Reply](res, i)
		if err != nil {
			fmt.Fprintf(s.out, "%d) (error) %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(s.out, "%d) %s\n", i+1, v.String())
	}
}

func (s *shell) reset() {
	s.inMulti = false
	s.queued = nil
	s.watched = nil
}

func toArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// splitArgs splits a line on whitespace. Double quotes group words and
// accept \" and \\ escapes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasArg  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && (c == ' ' || c == '\t'):
			if hasArg {
				args = append(args, cur.String())
				cur.Reset()
				hasArg = false
			}
		default:
			cur.WriteByte(c)
			hasArg = true
		}
	}
	if inQuote {
		return nil, errors.New("unbalanced quotes")
	}
	if hasArg {
		args = append(args, cur.String())
	}
	return args, nil
}
