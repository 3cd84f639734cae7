// Package async defines the two value kinds the streaming codec recognizes
// beyond plain data: Future, a one-shot deferred computation, and Sequence,
// a lazy ordered stream terminated by a return value or a failure.
//
// Both types are deliberately non-generic at their core: the streaming core
// moves values of type any across the wire, so a Future[T]/Sequence[T] would
// only add a layer of type assertions back to any at the registration
// boundary. Typed convenience constructors are provided for callers that
// want them.
package async

import (
	"context"
	"sync"
)

// ResolveFunc computes a Future's eventual value or failure. It should
// respect ctx cancellation where possible.
type ResolveFunc func(ctx context.Context) (any, error)

// Future is a one-shot deferred computation: it either yields a value or
// fails, exactly once.
type Future struct {
	resolve ResolveFunc

	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc
	value  any
	err    error
}

// NewFuture returns a Future that computes its result by calling resolve
// the first time Await is called.
func NewFuture(resolve ResolveFunc) *Future {
	return &Future{resolve: resolve}
}

// NewResolved returns a Future that is already resolved with value.
func NewResolved(value any) *Future {
	return NewFuture(func(context.Context) (any, error) { return value, nil })
}

// NewRejected returns a Future that is already resolved with err.
func NewRejected(err error) *Future {
	return NewFuture(func(context.Context) (any, error) { return nil, err })
}

// NewTyped adapts a typed resolve function into a Future. It is sugar over
// NewFuture for callers that have a concrete T rather than any.
func NewTyped[T any](resolve func(ctx context.Context) (T, error)) *Future {
	return NewFuture(func(ctx context.Context) (any, error) { return resolve(ctx) })
}

// Await blocks until the future resolves or ctx is canceled, whichever comes
// first. The underlying computation is started at most once, on the first
// call to Await, regardless of how many goroutines call it concurrently or
// with what context.
func (f *Future) Await(ctx context.Context) (any, error) {
	f.once.Do(func() {
		rctx, cancel := context.WithCancel(context.Background())
		f.cancel = cancel
		f.done = make(chan struct{})
		go func() {
			defer close(f.done)
			f.value, f.err = f.resolve(rctx)
		}()
	})
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel signals the underlying computation to stop, if it is still running
// and respects context cancellation. Cancellation is best-effort: if the
// computation ignores its context, Cancel has no observable effect beyond
// making future Await calls from a canceled ctx return promptly.
func (f *Future) Cancel() {
	f.once.Do(func() {
		// Never started; synthesize an already-canceled result so a
		// subsequent Await (there should be none, but be safe) doesn't hang.
		f.done = make(chan struct{})
		f.err = context.Canceled
		close(f.done)
	})
	if f.cancel != nil {
		f.cancel()
	}
}
