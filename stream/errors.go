package stream

import "github.com/pkg/errors"

// Sentinel errors for the failure kinds the stream package distinguishes.
// Wrap with github.com/pkg/errors.Wrap/Wrapf to attach context while keeping
// these matchable with errors.Is.
var (
	// ErrStreamInterrupted is delivered to every outstanding sink when the
	// chunk stream ends (or fails) while sinks remain.
	ErrStreamInterrupted = errors.New("stream: interrupted")
	// ErrMalformedChunk means a chunk's header could not be parsed.
	ErrMalformedChunk = errors.New("stream: malformed chunk")
	// ErrUnknownStatus means a reviver saw a status code outside its set.
	ErrUnknownStatus = errors.New("stream: unknown status code")
	// ErrEmptyStream means the chunk iterator produced no chunks at all, not
	// even a root chunk.
	ErrEmptyStream = errors.New("stream: empty chunk stream")
)
