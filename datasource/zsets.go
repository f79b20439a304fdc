/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/datasource/zsets.go
*/
package datasource

import (
	"github.com/akashmaji946/go-redis-tx/internal/codec"
	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
)

// ScoredValue is a sorted-set member with its score.
type ScoredValue[V any] struct {
	Value V
	Score float64
}

// SortedSetCommands groups the sorted-set commands for members of type V.
type SortedSetCommands[V any] struct {
	t Target
}

// SortedSets returns the sorted-set command group of t.
func SortedSets[V any](t Target) SortedSetCommands[V] {
	return SortedSetCommands[V]{t: t}
}

// ZAdd adds member with score and reports whether it was new.
func (c SortedSetCommands[V]) ZAdd(key string, score float64, member V) *Slot[bool] {
	return submitAs(c.t, NewCommand("ZADD", key, score, member), codec.Decode[bool])
}

// ZAddAll adds every scored member and returns how many were new.
func (c SortedSetCommands[V]) ZAddAll(key string, members ...ScoredValue[V]) *Slot[int64] {
	args := make([]any, 0, 1+2*len(members))
	args = append(args, key)
	for _, m := range members {
		args = append(args, m.Score, m.Value)
	}
	return submitAs(c.t, NewCommand("ZADD", args...), codec.Decode[int64])
}

// ZIncrBy adds amount to the score of member and returns the new score.
func (c SortedSetCommands[V]) ZIncrBy(key string, amount float64, member V) *Slot[float64] {
	return submitAs(c.t, NewCommand("ZINCRBY", key, amount, member), codec.Decode[float64])
}

// ZScore returns the score of member, nil when it is not in the set.
func (c SortedSetCommands[V]) ZScore(key string, member V) *Slot[*float64] {
	return submitAs(c.t, NewCommand("ZSCORE", key, member), codec.Decode[*float64])
}

func (c SortedSetCommands[V]) ZRem(key string, members ...V) *Slot[int64] {
	return submitAs(c.t, NewCommand("ZREM", withKey(key, members)...), codec.Decode[int64])
}

// ZRange returns members by rank, lowest score first.
func (c SortedSetCommands[V]) ZRange(key string, start, stop int64) *Slot[[]V] {
	return submitAs(c.t, NewCommand("ZRANGE", key, start, stop), codec.DecodeSlice[V])
}

func (c SortedSetCommands[V]) ZRangeWithScores(key string, start, stop int64) *Slot[[]ScoredValue[V]] {
	return submitAs(c.t, NewCommand("ZRANGE", key, start, stop, "WITHSCORES"), decodeScored[V])
}

func (c SortedSetCommands[V]) ZCard(key string) *Slot[int64] {
	return submitAs(c.t, NewCommand("ZCARD", key), codec.Decode[int64])
}

func decodeScored[V any](v resp.Value) ([]ScoredValue[V], error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Typ != resp.ARRAY || len(v.Arr)%2 != 0 {
		return nil, errors.Errorf("expected member/score pairs, got %s", v.String())
	}
	out := make([]ScoredValue[V], 0, len(v.Arr)/2)
	for i := 0; i < len(v.Arr); i += 2 {
		m, err := codec.Decode[V](v.Arr[i])
		if err != nil {
			return nil, errors.Wrapf(err, "member %d", i/2)
		}
		score, err := codec.Decode[float64](v.Arr[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "score %d", i/2)
		}
		out = append(out, ScoredValue[V]{Value: m, Score: score})
	}
	return out, nil
}
