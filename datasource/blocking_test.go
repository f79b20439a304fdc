package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockingTransactionCommits(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))
	ctx := context.Background()

	var get *Slot[string]
	res, err := ds.WithTransaction(ctx, func(tx *Tx) error {
		Values[string](tx).Set("greeting", "hello")
		Values[string](tx).Incr("counter")
		Hashes[int](tx).HSet("user:1", "age", 42)
		Lists[string](tx).RPush("queue", "a", "b")
		get = Values[string](tx).Get("greeting")

		_, err := get.Result()
		assert.ErrorIs(t, err, ErrSlotEmpty)
		return nil
	})
	require.NoError(t, err)
	require.False(t, res.Discarded())
	require.Equal(t, 5, res.Size())

	assert.Nil(t, res.Get(0))
	assert.Equal(t, int64(1), res.Get(1))
	assert.Equal(t, true, res.Get(2))
	assert.Equal(t, int64(2), res.Get(3))
	assert.Equal(t, "hello", res.Get(4))
	for i := 0; i < res.Size(); i++ {
		assert.NoError(t, res.Err(i))
	}

	v, err := get.Result()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	n, err := ResultAs[int64](res, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = ResultAs[string](res, 1)
	assert.Error(t, err)
	_, err = ResultAs[string](res, 9)
	assert.Error(t, err)
}

func TestBlockingEmptyTransaction(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error { return nil })
	require.NoError(t, err)
	assert.False(t, res.Discarded())
	assert.Equal(t, 0, res.Size())
}

func TestBlockingResultsFollowCallOrder(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		SortedSets[string](tx).ZAdd("board", 10, "ann")
		Sets[string](tx).SAdd("tags", "go", "redis")
		Hashes[string](tx).HSet("h", "f", "v")
		SortedSets[string](tx).ZIncrBy("board", 2.5, "ann")
		Lists[int](tx).LPush("nums", 1, 2, 3)
		Keys(tx).Exists("h", "tags", "missing")
		Sets[string](tx).SMembers("tags")
		Lists[int](tx).LRange("nums", 0, -1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 8, res.Size())

	assert.Equal(t, true, res.Get(0))
	assert.Equal(t, int64(2), res.Get(1))
	assert.Equal(t, true, res.Get(2))
	assert.Equal(t, 12.5, res.Get(3))
	assert.Equal(t, int64(3), res.Get(4))
	assert.Equal(t, int64(2), res.Get(5))
	assert.Equal(t, []string{"go", "redis"}, res.Get(6))
	assert.Equal(t, []int{3, 2, 1}, res.Get(7))
}

func TestBlockingLateFailureKeepsOtherResults(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	var pop *Slot[string]
	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[string](tx).Set("k", "foobar")
		pop = Lists[string](tx).LPop("k")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, res.Discarded())
	require.Equal(t, 2, res.Size())

	assert.Nil(t, res.Get(0))
	assert.NoError(t, res.Err(0))

	var rerr *RedisError
	require.ErrorAs(t, res.Err(1), &rerr)
	assert.Equal(t, "WRONGTYPE", rerr.Prefix())
	assert.IsType(t, &RedisError{}, res.Get(1))

	_, err = pop.Result()
	require.ErrorAs(t, err, &rerr)

	assert.Equal(t, "foobar", mustGet(t, ds, "k"))
}

func TestBlockingClientFailureAborts(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	var first *Slot[Void]
	var bad *Slot[Void]
	var after *Slot[Void]
	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		first = Values[string](tx).Set("k", "v")
		bad = Hashes[string](tx).HMSet("h", map[string]string{})
		after = Values[string](tx).Set("k2", "v")
		return nil
	})
	require.Nil(t, res)

	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ClientFailure, te.Kind)
	assert.Equal(t, "HMSET", te.Command)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Contains(t, err.Error(), "redis command is not valid")

	assert.ErrorIs(t, bad.Err(), ErrInvalidCommand)
	assert.ErrorIs(t, after.Err(), ErrInvalidCommand)
	_, err = first.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)

	assert.Equal(t, "", mustGet(t, ds, "k"))
	assert.Equal(t, "", mustGet(t, ds, "k2"))
}

func TestBlockingUnencodableArgumentIsClientFailure(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	_, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[any](tx).Set("k", make(chan int))
		return nil
	})
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ClientFailure, te.Kind)
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestBlockingEarlyFailureAborts(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	var bad *Slot[Reply]
	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[string](tx).Set("k", "v")
		bad = Execute(tx, "NOSUCHCMD", "x")
		return nil
	})
	require.Nil(t, res)

	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, EarlyFailure, te.Kind)
	assert.Equal(t, "NOSUCHCMD", te.Command)

	var rerr *RedisError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ERR", rerr.Prefix())

	_, qerr := await(t, bad.Queued())
	assert.ErrorAs(t, qerr, &te)

	assert.Equal(t, "", mustGet(t, ds, "k"))
}

func TestBlockingWatchedKeyModifiedDiscards(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))
	require.NoError(t, Values[string](ds).Set("k", "initial").Err())

	var mine *Slot[Void]
	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		// a concurrent writer on another pooled connection
		if err := Values[string](tx.DataSource()).Set("k", "other").Err(); err != nil {
			return err
		}
		mine = Values[string](tx).Set("k", "mine")
		return nil
	}, "k")
	require.NoError(t, err)
	assert.True(t, res.Discarded())
	assert.Equal(t, 0, res.Size())

	_, err = mine.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.Equal(t, "other", mustGet(t, ds, "k"))
}

func TestBlockingWatchedKeyUntouchedCommits(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[string](tx).Set("k", "mine")
		return nil
	}, "k", "unrelated")
	require.NoError(t, err)
	assert.False(t, res.Discarded())
	assert.Equal(t, "mine", mustGet(t, ds, "k"))
}

func TestBlockingDiscard(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	var queued *Slot[Void]
	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		queued = Values[string](tx).Set("k", "v")
		if err := tx.Discard(); err != nil {
			return err
		}
		assert.ErrorIs(t, Values[string](tx).Set("k2", "v").Err(), ErrIllegalState)
		assert.ErrorIs(t, tx.Discard(), ErrIllegalState)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, res.Discarded())

	_, err = queued.Result()
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.Equal(t, "", mustGet(t, ds, "k"))
}

func TestBlockingBodyErrorLeavesConnectionClean(t *testing.T) {
	opts := testOptions(t, startServer(t))
	opts.PoolSize = 1
	ds := newBlocking(t, opts)
	boom := errors.New("boom")

	_, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[string](tx).Set("k", "v")
		return boom
	}, "k")
	require.ErrorIs(t, err, boom)

	// the single pooled connection must not be left inside MULTI
	assert.Equal(t, "", mustGet(t, ds, "k"))
	require.NoError(t, Values[string](ds).Set("k", "after").Err())
	assert.Equal(t, "after", mustGet(t, ds, "k"))
}

func TestBlockingTxIsClosedAfterCommit(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	var leaked *Tx
	_, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		leaked = tx
		Values[string](tx).Set("k", "v")
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, Values[string](leaked).Set("k", "late").Err(), ErrIllegalState)
	assert.ErrorIs(t, leaked.Discard(), ErrIllegalState)
	assert.Equal(t, "v", mustGet(t, ds, "k"))
}

func TestBlockingConcurrentUseIsRejected(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	res, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		tx.busy.Store(true)
		assert.ErrorIs(t, Values[string](tx).Set("a", "1").Err(), ErrConcurrentUse)
		assert.ErrorIs(t, tx.Discard(), ErrConcurrentUse)
		tx.busy.Store(false)

		tx.r.c.busy.Store(true)
		assert.ErrorIs(t, Values[string](tx).Set("b", "1").Err(), ErrConcurrentUse)
		tx.r.c.busy.Store(false)

		Values[string](tx).Set("c", "1")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Size())
	assert.Equal(t, "", mustGet(t, ds, "a"))
	assert.Equal(t, "1", mustGet(t, ds, "c"))
}

func TestBlockingTimeout(t *testing.T) {
	opts := testOptions(t, startServer(t))
	opts.Timeout = 100 * time.Millisecond
	opts.PoolSize = 1
	ds := newBlocking(t, opts)

	start := time.Now()
	_, err := ds.WithTransaction(context.Background(), func(tx *Tx) error {
		Values[string](tx).Set("k", "v")
		time.Sleep(time.Second)
		return nil
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond)

	assert.Equal(t, "", mustGet(t, ds, "k"))
	assert.LessOrEqual(t, ds.Stats().Open, int64(1))
}

func TestBlockingCallerDeadline(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ds.WithTransaction(ctx, func(tx *Tx) error {
		<-time.After(500 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBlockingWithConnection(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	err := ds.WithConnection(context.Background(), func(c *DataSource) error {
		require.NoError(t, Values[int](c).Set("n", 1).Err())
		n, err := Values[int](c).Incr("n").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		res, err := c.WithTransaction(context.Background(), func(tx *Tx) error {
			Values[int](tx).IncrBy("n", 10)
			return nil
		}, "n")
		require.NoError(t, err)
		assert.Equal(t, int64(12), res.Get(0))
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = ds.WithConnection(context.Background(), func(*DataSource) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestBlockingNestedTransactionDataSourceIsPooled(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	err := ds.WithConnection(context.Background(), func(c *DataSource) error {
		res, err := c.WithTransaction(context.Background(), func(tx *Tx) error {
			if err := Values[string](tx.DataSource()).Set("k", "other").Err(); err != nil {
				return err
			}
			Values[string](tx).Set("k", "mine")
			return nil
		}, "k")
		require.NoError(t, err)
		assert.True(t, res.Discarded())

		v, err := Values[string](c).Get("k").Result()
		require.NoError(t, err)
		assert.Equal(t, "other", v)
		return nil
	})
	require.NoError(t, err)
}

func TestBlockingNestedTimeoutLeavesConnectionUsable(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))
	unblock := make(chan struct{})
	defer close(unblock)

	err := ds.WithConnection(context.Background(), func(c *DataSource) error {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := c.WithTransaction(ctx, func(tx *Tx) error {
			Values[string](tx).Set("inside", "x")
			<-unblock
			return nil
		})
		if !errors.Is(err, ErrTimeout) {
			return errors.Errorf("nested transaction ended with %v", err)
		}
		return Values[string](c).Set("after", "x").Err()
	})
	require.NoError(t, err)

	assert.Equal(t, "x", mustGet(t, ds, "after"))
	assert.Equal(t, "", mustGet(t, ds, "inside"))
}

func TestExecuteOutsideTransaction(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))

	reply, err := Execute(ds, "PING").Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply.Str)

	_, err = Execute(ds, "GET").Result()
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = Execute(ds, "NOSUCHCMD").Result()
	var rerr *RedisError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ERR", rerr.Prefix())

	_, err = Lists[string](ds).LPop("missing").Result()
	assert.NoError(t, err)
}

func TestBlockingClosedDataSource(t *testing.T) {
	ds := newBlocking(t, testOptions(t, startServer(t)))
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, Values[string](ds).Set("k", "v").Err(), ErrClosed)
	_, err := ds.WithTransaction(context.Background(), func(*Tx) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}
