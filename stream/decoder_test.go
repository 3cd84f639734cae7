package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidenly/streamcodec/async"
)

func TestDecodeStreamPlainValue(t *testing.T) {
	v, err := DecodeStream(context.Background(), SliceChunks([]string{`{"a":1}`}), DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestDecodeStreamEmptyStream(t *testing.T) {
	_, err := DecodeStream(context.Background(), SliceChunks(nil), DecodeOptions{})
	assert.ErrorIs(t, err, ErrEmptyStream)
}

func TestDecodeStreamFutureResolves(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"f":{"$t":"future","$v":1}}`,
		`1:0:"hello"`,
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	m := v.(map[string]any)
	f := m["f"].(*async.Future)
	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDecodeStreamFutureRejects(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"$t":"future","$v":1}`,
		`1:1:{"$t":"error","$v":{"msg":"boom"}}`,
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	f := v.(*async.Future)
	_, err = f.Await(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestDecodeStreamSequenceYieldsThenReturns(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"$t":"sequence","$v":1}`,
		`1:0:1`,
		`1:0:2`,
		`1:2:"done"`,
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	seq := v.(*async.Sequence)

	item, done, _, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, float64(1), item)

	item, done, _, err = seq.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, float64(2), item)

	_, done, ret, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "done", ret)
}

func TestDecodeStreamUnknownIDIsDroppedNotFatal(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"$t":"future","$v":1}`,
		`99:0:"ignored, no sink for id 99"`,
		`1:0:"hello"`,
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	f := v.(*async.Future)
	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDecodeStreamTruncationFailsOutstandingSinks(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"$t":"future","$v":1}`,
		// stream ends here with the future never resolved.
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	f := v.(*async.Future)
	_, err = f.Await(context.Background())
	assert.ErrorIs(t, err, ErrStreamInterrupted)
}

func TestDecodeStreamSequenceCloseAbandonsSink(t *testing.T) {
	chunks := SliceChunks([]string{
		`{"$t":"sequence","$v":1}`,
		`1:0:1`,
		`1:0:2`,
		`1:2:"done"`,
	})
	v, err := DecodeStream(context.Background(), chunks, DecodeOptions{})
	require.NoError(t, err)
	seq := v.(*async.Sequence)

	_, _, _, err = seq.Next(context.Background())
	require.NoError(t, err)
	seq.Close()
	seq.Close() // idempotent
}
