package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureResolves(t *testing.T) {
	f := NewFuture(func(ctx context.Context) (any, error) { return 42, nil })
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFutureRejects(t *testing.T) {
	wantErr := errors.New("boom")
	f := NewFuture(func(ctx context.Context) (any, error) { return nil, wantErr })
	_, err := f.Await(context.Background())
	assert.Equal(t, wantErr, err)
}

func TestFutureResolvesOnce(t *testing.T) {
	calls := 0
	f := NewFuture(func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	})
	v1, _ := f.Await(context.Background())
	v2, _ := f.Await(context.Background())
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestFutureAwaitRespectsCallerContext(t *testing.T) {
	f := NewFuture(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureCancelBeforeAwait(t *testing.T) {
	f := NewFuture(func(ctx context.Context) (any, error) { return 1, nil })
	f.Cancel()
	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSequenceFromSlice(t *testing.T) {
	seq := FromSlice([]any{1, 2, 3}, "done")
	ctx := context.Background()
	var got []any
	for {
		item, done, ret, err := seq.Next(ctx)
		require.NoError(t, err)
		if done {
			assert.Equal(t, "done", ret)
			break
		}
		got = append(got, item)
	}
	assert.Equal(t, []any{1, 2, 3}, got)
}

func TestSequenceCloseIsIdempotent(t *testing.T) {
	closes := 0
	seq := NewSequence(func(ctx context.Context) (any, bool, any, error) {
		return nil, true, nil, nil
	}, func() { closes++ })
	seq.Close()
	seq.Close()
	assert.Equal(t, 1, closes)
}

type sliceIterator struct {
	vals []any
	i    int
	err  error
}

func (it *sliceIterator) Advance() bool {
	if it.i >= len(it.vals) {
		return false
	}
	it.i++
	return true
}
func (it *sliceIterator) Value() any { return it.vals[it.i-1] }
func (it *sliceIterator) Err() error { return it.err }

func TestFromIterator(t *testing.T) {
	seq := FromIterator(&sliceIterator{vals: []any{"a", "b"}})
	ctx := context.Background()
	item, done, _, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", item)

	item, done, _, err = seq.Next(ctx)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "b", item)

	_, done, ret, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, ret)
}

func TestFromIteratorPropagatesErr(t *testing.T) {
	wantErr := errors.New("iter failed")
	seq := FromIterator(&sliceIterator{err: wantErr})
	_, done, _, err := seq.Next(context.Background())
	assert.True(t, done)
	assert.Equal(t, wantErr, err)
}
