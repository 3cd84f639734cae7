package async

import (
	"context"
	"sync"
)

// NextFunc produces the next step of a Sequence: either an item (done=false),
// a terminal return value (done=true, err=nil), or a terminal failure
// (done=true, err!=nil).
type NextFunc func(ctx context.Context) (item any, done bool, ret any, err error)

// Sequence is a lazy ordered stream producing zero or more items followed by
// either a return value or a failure. The same type describes an encode-side
// source (backed by a NextFunc that computes or forwards real work) and a
// decode-side reconstruction (backed by a NextFunc that reads from a sink
// channel) — both are "pull the next step, find out if you're done."
type Sequence struct {
	next    NextFunc
	closeFn func()
	once    sync.Once
}

// NewSequence returns a Sequence backed by next. closeFn, if non-nil, is the
// early-termination hook invoked at most once, by Close.
func NewSequence(next NextFunc, closeFn func()) *Sequence {
	return &Sequence{next: next, closeFn: closeFn}
}

// Next pulls the next step of the sequence.
func (s *Sequence) Next(ctx context.Context) (item any, done bool, ret any, err error) {
	return s.next(ctx)
}

// Close invokes the early-termination hook exactly once. It is safe to call
// Close after the sequence has already reached a terminal frame; doing so is
// a no-op beyond running closeFn once, matching spec's requirement that the
// hook run "on all exit paths (including early abandonment)."
func (s *Sequence) Close() {
	s.once.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
}

// FromSlice returns a Sequence that yields each element of items in order,
// then returns ret.
func FromSlice(items []any, ret any) *Sequence {
	i := 0
	return NewSequence(func(ctx context.Context) (any, bool, any, error) {
		if i >= len(items) {
			return nil, true, ret, nil
		}
		v := items[i]
		i++
		return v, false, nil, nil
	}, nil)
}
