package stream

import (
	"context"

	"github.com/tidenly/streamcodec/wire"
)

// frame is one decoded producer frame handed from the demux pump to a sink.
type frame struct {
	status  int
	decoded any
	err     error
}

// sink is the Decoder's uniform delivery point for one producer id. The
// pump goroutine sends; reviveFuture/reviveSequence's returned Future and
// Sequence receive. kind disambiguates status codes, since FutureOK and
// SeqYield both carry wire value 0.
//
// ch is buffered 1: the pump blocks on send once a sink already holds an
// undelivered frame, so a slow consumer naturally backpressures the pump,
// and through it every other producer multiplexed onto the same chunk
// stream, matching spec's single-threaded demux model.
type sink struct {
	kind   wire.Kind
	ch     chan frame
	closed chan struct{}
}

func newSink(kind wire.Kind) *sink {
	return &sink{kind: kind, ch: make(chan frame, 1), closed: make(chan struct{})}
}

// abandon marks the sink closed, unblocking any in-flight deliver. Called
// when the Future/Sequence consuming this sink stops early.
func (s *sink) abandon() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}

// deliver sends fr to the sink, respecting ctx cancellation and abandonment
// so the pump never blocks forever on a sink nobody is draining anymore.
func (s *sink) deliver(ctx context.Context, fr frame) error {
	select {
	case s.ch <- fr:
		return nil
	case <-s.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// receive blocks for the sink's next frame or ctx cancellation.
func (s *sink) receive(ctx context.Context) (frame, error) {
	select {
	case fr := <-s.ch:
		return fr, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}
