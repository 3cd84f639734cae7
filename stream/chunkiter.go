package stream

import "context"

// ChunkIterator is a lazy, pull-based sequence of textual chunks: the root
// chunk followed by zero or more producer chunks. Next returns ok=false
// (with err=nil) when the sequence is exhausted normally.
type ChunkIterator interface {
	Next(ctx context.Context) (chunk string, ok bool, err error)
}

// ChunkIterFunc adapts a plain function to a ChunkIterator, the same way
// http.HandlerFunc adapts a function to http.Handler.
type ChunkIterFunc func(ctx context.Context) (string, bool, error)

// Next implements ChunkIterator.
func (f ChunkIterFunc) Next(ctx context.Context) (string, bool, error) { return f(ctx) }

// SliceChunks returns a ChunkIterator over a fixed, already-materialized
// slice of chunks. Useful for tests and for small fully-buffered messages.
func SliceChunks(chunks []string) ChunkIterator {
	i := 0
	return ChunkIterFunc(func(ctx context.Context) (string, bool, error) {
		if i >= len(chunks) {
			return "", false, nil
		}
		c := chunks[i]
		i++
		return c, true, nil
	})
}

// ChunkOrErr is one item of a push-based chunk channel: either a chunk, an
// error, or (via a closed channel) end of stream.
type ChunkOrErr struct {
	Chunk string
	Err   error
}

// WrapAsChannel adapts a ChunkIterator (pull) into a host-native push
// stream: a channel that is fed by a background goroutine pulling it until
// it is exhausted, errors, or ctx is canceled. The channel is closed when
// the goroutine stops.
func WrapAsChannel(ctx context.Context, it ChunkIterator) <-chan ChunkOrErr {
	out := make(chan ChunkOrErr, 1)
	go func() {
		defer close(out)
		for {
			chunk, ok, err := it.Next(ctx)
			if err != nil {
				select {
				case out <- ChunkOrErr{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if !ok {
				return
			}
			select {
			case out <- ChunkOrErr{Chunk: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// WrapAsIterator adapts a host-native push stream (a channel of ChunkOrErr,
// closed at end of stream) into a pull-based ChunkIterator.
func WrapAsIterator(ch <-chan ChunkOrErr) ChunkIterator {
	return ChunkIterFunc(func(ctx context.Context) (string, bool, error) {
		select {
		case item, open := <-ch:
			if !open {
				return "", false, nil
			}
			if item.Err != nil {
				return "", false, item.Err
			}
			return item.Chunk, true, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	})
}
