package stream

import (
	"context"

	"github.com/tidenly/streamcodec/async"
	"github.com/tidenly/streamcodec/wire"
)

// producerIter is the Encoder's uniform view of a live producer, whether
// it's backed by a Future or a Sequence.
type producerIter interface {
	// next blocks until the next frame is available, returning the wire
	// status, its already-stringified payload, and whether this is the
	// producer's terminal frame.
	next(ctx context.Context) (status int, payload string, terminal bool)
	// closeProducer invokes the underlying source's early-termination hook.
	closeProducer()
}

// entry is one live producer in the Encoder's active set.
type entry struct {
	id      int
	kind    wire.Kind
	it      producerIter
	pending chan frameResult
}

// frameResult is what arrives on an entry's pending channel once its
// goroutine finishes computing the next frame.
type frameResult struct {
	status   int
	payload  string
	terminal bool
}

type futureIter struct {
	enc *Encoder
	f   *async.Future
}

func (p *futureIter) next(ctx context.Context) (int, string, bool) {
	v, err := p.f.Await(ctx)
	if err != nil {
		return wire.StatusFutureErr, p.enc.safeCausePayload(err), true
	}
	payload, err := p.enc.codec.Stringify(v)
	if err != nil {
		return wire.StatusFutureErr, p.enc.safeCausePayload(err), true
	}
	return wire.StatusFutureOK, payload, true
}

func (p *futureIter) closeProducer() { p.f.Cancel() }

type sequenceIter struct {
	enc *Encoder
	seq *async.Sequence
}

func (p *sequenceIter) next(ctx context.Context) (int, string, bool) {
	item, done, ret, err := p.seq.Next(ctx)
	if err != nil {
		return wire.StatusSeqError, p.enc.safeCausePayload(err), true
	}
	if done {
		payload, err := p.enc.codec.Stringify(ret)
		if err != nil {
			return wire.StatusSeqError, p.enc.safeCausePayload(err), true
		}
		return wire.StatusSeqReturn, payload, true
	}
	payload, err := p.enc.codec.Stringify(item)
	if err != nil {
		return wire.StatusSeqError, p.enc.safeCausePayload(err), true
	}
	return wire.StatusSeqYield, payload, false
}

func (p *sequenceIter) closeProducer() { p.seq.Close() }
