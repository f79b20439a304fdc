/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/command.go
*/
package datasource

import (
	"strings"

	"github.com/akashmaji946/go-redis-tx/internal/codec"
	"github.com/akashmaji946/go-redis-tx/internal/common"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
)

// Reply is a raw store reply, as returned by Execute.
type Reply = resp.Value

// Command is a command ready to be written: its name and encoded arguments.
type Command struct {
	Name string
	Args []string

	err error
}

// NewCommand encodes args with the codec. An argument that cannot be encoded
// makes the command invalid; using it is a client failure.
func NewCommand(name string, args ...any) Command {
	cmd := Command{Name: strings.ToUpper(name), Args: make([]string, 0, len(args))}
	for i, a := range args {
		s, err := codec.Encode(a)
		if err != nil && cmd.err == nil {
			cmd.err = errors.Wrapf(ErrInvalidCommand, "%s argument %d: %v", cmd.Name, i+1, err)
		}
		cmd.Args = append(cmd.Args, s)
	}
	return cmd
}

// wire returns the command as written on the connection.
func (c Command) wire() []string {
	return append([]string{c.Name}, c.Args...)
}

// validate checks the command before it is sent. Known commands must match
// their arity; unknown commands are left for the store to judge.
func (c Command) validate() error {
	if c.err != nil {
		return c.err
	}
	if c.Name == "" {
		return errors.Wrap(ErrInvalidCommand, "empty command name")
	}
	info, ok := common.LookupCommand(c.Name)
	if !ok {
		return nil
	}
	if !info.AcceptsArgs(len(c.Args) + 1) {
		return errors.Wrapf(ErrInvalidCommand, "%s: wrong number of arguments, usage: %s", c.Name, info.Usage)
	}
	return nil
}

// Target is anything commands can be submitted to: a blocking or reactive
// datasource, or an open blocking or reactive transaction.
type Target interface {
	submit(cmd Command, decode decodeFunc) *slot
}

// submitAs submits cmd to t and decodes the reply as T.
func submitAs[T any](t Target, cmd Command, decode func(resp.Value) (T, error)) *Slot[T] {
	return newTypedSlot[T](t.submit(cmd, func(v resp.Value) (any, error) {
		x, err := decode(v)
		if err != nil {
			return nil, err
		}
		return x, nil
	}))
}

// submitVoid submits a command whose reply carries no value (+OK).
func submitVoid(t Target, cmd Command) *Slot[Void] {
	return newTypedSlot[Void](t.submit(cmd, func(resp.Value) (any, error) { return nil, nil }))
}

// Execute submits an arbitrary command. Inside a transaction it is queued
// like any typed command.
func Execute(t Target, name string, args ...any) *Slot[Reply] {
	return submitAs(t, NewCommand(name, args...), codec.Decode[resp.Value])
}
