package async

import "context"

// Iterator is a caller-advanced cursor with a staged current value and a
// deferred error, the shape most blocking iterators over an existing data
// source already take.
type Iterator interface {
	// Advance stages the next value, returning false when exhausted (whether
	// normally or due to an error — check Err afterward).
	Advance() bool
	// Value returns the currently staged value. Only valid after Advance
	// returns true.
	Value() any
	// Err returns a non-nil error iff the iterator stopped because of one.
	Err() error
}

// FromIterator adapts it into a Sequence: each Next pulls one Advance/Value
// step, surfacing Err() as the sequence's terminal failure if Advance
// returned false because of an error, or a nil return value on clean
// exhaustion.
func FromIterator(it Iterator) *Sequence {
	return NewSequence(func(ctx context.Context) (any, bool, any, error) {
		if !it.Advance() {
			if err := it.Err(); err != nil {
				return nil, true, nil, err
			}
			return nil, true, nil, nil
		}
		return it.Value(), false, nil, nil
	}, nil)
}
