package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidenly/streamcodec/async"
)

func TestRoundTripPlainValue(t *testing.T) {
	ctx := context.Background()
	it, err := EncodeStream(ctx, []any{"a", float64(1), true, nil}, Options{})
	require.NoError(t, err)
	v, err := DecodeStream(ctx, it, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", float64(1), true, nil}, v)
}

func TestRoundTripFutureAndSequenceTogether(t *testing.T) {
	ctx := context.Background()
	f := async.NewResolved("ok")
	seq := async.FromSlice([]any{float64(1), float64(2), float64(3)}, "bye")

	it, err := EncodeStream(ctx, map[string]any{"f": f, "seq": seq}, Options{})
	require.NoError(t, err)

	v, err := DecodeStream(ctx, it, DecodeOptions{})
	require.NoError(t, err)
	m := v.(map[string]any)

	gotF, err := m["f"].(*async.Future).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", gotF)

	gotSeq := m["seq"].(*async.Sequence)
	var items []any
	for {
		item, done, ret, err := gotSeq.Next(ctx)
		require.NoError(t, err)
		if done {
			assert.Equal(t, "bye", ret)
			break
		}
		items = append(items, item)
	}
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, items)
}

func TestRoundTripNestedProducerInsideFutureValue(t *testing.T) {
	ctx := context.Background()
	inner := async.NewResolved("inner value")
	outer := async.NewTyped(func(ctx context.Context) (any, error) {
		return map[string]any{"nested": inner}, nil
	})

	it, err := EncodeStream(ctx, outer, Options{})
	require.NoError(t, err)
	v, err := DecodeStream(ctx, it, DecodeOptions{})
	require.NoError(t, err)

	gotOuter, err := v.(*async.Future).Await(ctx)
	require.NoError(t, err)
	nestedMap := gotOuter.(map[string]any)
	nestedFuture := nestedMap["nested"].(*async.Future)
	gotInner, err := nestedFuture.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "inner value", gotInner)
}

func TestRoundTripSequenceErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := assertErr("boom")
	seq := async.NewSequence(func(ctx context.Context) (any, bool, any, error) {
		return nil, true, nil, boom
	}, nil)

	it, err := EncodeStream(ctx, seq, Options{})
	require.NoError(t, err)
	v, err := DecodeStream(ctx, it, DecodeOptions{})
	require.NoError(t, err)

	gotSeq := v.(*async.Sequence)
	_, done, _, err := gotSeq.Next(ctx)
	assert.True(t, done)
	assert.EqualError(t, err, "boom")
}
