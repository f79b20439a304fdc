package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f := NewFuture[int]()
	assert.False(t, f.IsDone())
	assert.True(t, f.Complete(1))
	assert.False(t, f.Complete(2))
	assert.False(t, f.Fail(errors.New("late")))

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, f.IsDone())
}

func TestFutureAwaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewFuture[int]().Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureCombinators(t *testing.T) {
	ctx := context.Background()

	doubled := Map(Completed(21), func(v int) (int, error) { return v * 2, nil })
	v, err := doubled.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	skipped := false
	chained := Then(Failed[int](boom), func(int) *Future[string] {
		skipped = true
		return Completed("x")
	})
	_, err = chained.Await(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, skipped)

	s, err := Then(Completed(1), func(int) *Future[string] { return nil }).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	first := errors.New("first")
	_, err = All(Completed(Void{}), nil, Failed[Void](first), Failed[Void](boom)).Await(ctx)
	assert.ErrorIs(t, err, first)

	_, err = Ignore(Async(func() (int, error) { return 0, boom })).Await(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestSlotLifecycle(t *testing.T) {
	s := newTypedSlot[int64](newSlot(func(v resp.Value) (any, error) { return v.Num, nil }))

	_, err := s.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.NoError(t, s.Err())

	s.s.queued.Complete(Void{})
	_, err = s.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)

	x, err := s.s.resolve(*resp.NewIntegerValue(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), x)

	v, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestSlotTypeMismatch(t *testing.T) {
	s := newTypedSlot[int64](newSlot(func(v resp.Value) (any, error) { return v.Blk, nil }))
	_, err := s.s.resolve(*resp.NewBulkValue("seven"))
	require.NoError(t, err)

	_, err = s.Result()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
	assert.Contains(t, err.Error(), "slot holds string, not int64")

	_, err = s.Await(context.Background())
	assert.NotErrorIs(t, err, ErrSlotEmpty)
	assert.Contains(t, err.Error(), "not int64")
}

func TestSlotErrorReplyAndAbandon(t *testing.T) {
	s := newTypedSlot[string](newSlot(nil))
	_, err := s.s.resolve(*resp.NewErrorValue("WRONGTYPE Operation against a key holding the wrong kind of value"))
	var rerr *RedisError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "WRONGTYPE", rerr.Prefix())
	assert.ErrorAs(t, s.Err(), &rerr)

	abandoned := newTypedSlot[string](newSlot(nil))
	abandoned.s.abandon()
	_, err = abandoned.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)

	failed := newTypedSlot[string](failedSlot(ErrIllegalState))
	_, err = failed.Result()
	assert.ErrorIs(t, err, ErrIllegalState)
	_, err = failed.Queued().Await(context.Background())
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestCommandValidation(t *testing.T) {
	assert.NoError(t, NewCommand("set", "k", "v").validate())
	assert.Equal(t, "SET", NewCommand("set", "k", "v").Name)
	assert.Equal(t, []string{"INCRBY", "k", "5"}, NewCommand("incrby", "k", 5).wire())

	assert.ErrorIs(t, NewCommand("GET").validate(), ErrInvalidCommand)
	assert.ErrorIs(t, NewCommand("SET", "k").validate(), ErrInvalidCommand)
	assert.ErrorIs(t, NewCommand("GET", "a", "b").validate(), ErrInvalidCommand)
	assert.ErrorIs(t, NewCommand("").validate(), ErrInvalidCommand)
	assert.ErrorIs(t, NewCommand("SET", "k", nil).validate(), ErrInvalidCommand)

	// unknown commands are left for the store to judge
	assert.NoError(t, NewCommand("NOSUCHCMD").validate())
}

func TestTransactionErrorFormatting(t *testing.T) {
	err := &TransactionError{Kind: EarlyFailure, Command: "FOO", Err: &RedisError{Msg: "ERR unknown command 'FOO'"}}
	assert.Equal(t, "transaction aborted by early failure on FOO: ERR unknown command 'FOO'", err.Error())

	var rerr *RedisError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ERR", rerr.Prefix())

	timeout := asTimeout(errors.Wrap(context.DeadlineExceeded, "exec"))
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Equal(t, ErrTimeout, asTimeout(ErrTimeout))
	assert.NoError(t, asTimeout(nil))
}
