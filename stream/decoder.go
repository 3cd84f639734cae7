package stream

import (
	"context"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/tidenly/streamcodec/async"
	"github.com/tidenly/streamcodec/valuecodec"
	"github.com/tidenly/streamcodec/wire"
)

// recentTerminatedCacheSize bounds the diagnostic memory of recently-closed
// producer ids. It has no effect on wire behavior: a chunk for an id absent
// from both sinks and this cache is dropped exactly the same way as one
// still present in it.
const recentTerminatedCacheSize = 256

// Decoder demultiplexes one chunk stream, produced by a single Encoder,
// back into a value tree of live Futures and Sequences. It runs its own
// background pump and, like Encoder, is not meant to be driven by more than
// one logical consumer.
type Decoder struct {
	opts  DecodeOptions
	codec *valuecodec.Codec

	mu    sync.Mutex
	sinks map[int]*sink
	// recent tracks ids whose sink has already reached a terminal frame (or
	// been abandoned), purely so a late chunk for that id can be told apart
	// from one that was simply never registered, in logs.
	recent *lru.Cache
}

// DecodeStream reads the root chunk synchronously (registering any
// top-level producers it references), then starts a background pump that
// feeds every producer's Future/Sequence as further chunks arrive, and
// returns the reconstructed value tree immediately: producer values inside
// it are live and not yet resolved.
func DecodeStream(ctx context.Context, chunks ChunkIterator, opts DecodeOptions) (any, error) {
	recent, err := lru.New(recentTerminatedCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "stream: allocate diagnostic cache")
	}
	dec := &Decoder{
		opts:   opts,
		sinks:  make(map[int]*sink),
		recent: recent,
	}
	revivers := make(map[string]valuecodec.Reviver)
	for tag, r := range builtinRevivers(dec) {
		revivers[tag] = r
	}
	for tag, r := range opts.Revivers {
		revivers[tag] = r
	}
	dec.codec = valuecodec.New(nil, revivers)

	root, ok, err := chunks.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "stream: read root chunk")
	}
	if !ok {
		return nil, ErrEmptyStream
	}
	value, err := dec.codec.Parse(root)
	if err != nil {
		return nil, errors.Wrap(err, "stream: parse root chunk")
	}

	go dec.pump(chunks)
	return value, nil
}

// registerSink allocates the sink for a freshly-revived producer id.
func (dec *Decoder) registerSink(id int, kind wire.Kind) *sink {
	dec.mu.Lock()
	defer dec.mu.Unlock()
	s := newSink(kind)
	dec.sinks[id] = s
	return s
}

// retireSink removes id from the live set, whether because it reached a
// terminal frame or because its consumer abandoned it early.
func (dec *Decoder) retireSink(id int) {
	dec.mu.Lock()
	delete(dec.sinks, id)
	dec.recent.Add(id, struct{}{})
	dec.mu.Unlock()
}

func (dec *Decoder) lookupSink(id int) (*sink, bool) {
	dec.mu.Lock()
	defer dec.mu.Unlock()
	s, ok := dec.sinks[id]
	return s, ok
}

// pump runs for the lifetime of the decode session, detached from any one
// caller's context: producer chunks may arrive long after DecodeStream
// returned and long after the ctx passed to it has gone out of scope,
// mirroring Encoder.arm's use of a background context for the same reason.
func (dec *Decoder) pump(chunks ChunkIterator) {
	ctx := context.Background()
	for {
		raw, ok, err := chunks.Next(ctx)
		if err != nil {
			dec.failAll(ctx, errors.WithMessagef(ErrStreamInterrupted, "read chunk: %v", err))
			return
		}
		if !ok {
			dec.failAll(ctx, ErrStreamInterrupted)
			return
		}
		id, status, payload, err := wire.ParseChunk(raw)
		if err != nil {
			dec.failAll(ctx, errors.WithMessage(ErrMalformedChunk, err.Error()))
			return
		}
		s, ok := dec.lookupSink(id)
		if !ok {
			// Not a live producer: either it already terminated (see
			// dec.recent) or the id was never registered. Either way, per
			// spec's Open Question resolution, the frame is silently
			// dropped rather than treated as a stream error; only the log
			// line says which case it was.
			if dec.recent.Contains(id) {
				log.Printf("stream: dropping late frame for finished producer %d", id)
			} else {
				log.Printf("stream: dropping frame for unannounced producer %d", id)
			}
			continue
		}
		decoded, err := dec.codec.Parse(payload)
		if err != nil {
			dec.failAll(ctx, errors.Wrapf(err, "stream: parse payload for producer %d", id))
			return
		}
		if wire.IsTerminal(s.kind, status) {
			dec.retireSink(id)
		}
		if err := s.deliver(ctx, frame{status: status, decoded: decoded}); err != nil {
			dec.failAll(ctx, err)
			return
		}
	}
}

// failAll delivers err to every sink still outstanding, then clears them.
// It runs once, at the point the pump itself gives up: on a malformed
// chunk, a chunk-source failure, or normal end of stream while producers
// remain unresolved.
func (dec *Decoder) failAll(ctx context.Context, err error) {
	dec.mu.Lock()
	sinks := dec.sinks
	dec.sinks = make(map[int]*sink)
	dec.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sinks {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deliver(ctx, frame{err: err})
		}()
	}
	wg.Wait()
}

// reviveFuture is the tagFuture reviver: it registers a sink for id and
// returns a Future that resolves from that sink's single terminal frame.
func (dec *Decoder) reviveFuture(id int) *async.Future {
	s := dec.registerSink(id, wire.KindFuture)
	return async.NewFuture(func(ctx context.Context) (any, error) {
		fr, err := s.receive(ctx)
		if err != nil {
			s.abandon()
			return nil, err
		}
		if fr.err != nil {
			return nil, fr.err
		}
		if fr.status == wire.StatusFutureErr {
			return nil, causeToError(fr.decoded)
		}
		return fr.decoded, nil
	})
}

// reviveSequence is the tagSequence reviver: it registers a sink for id and
// returns a Sequence that pulls successive frames from it. Close abandons
// the sink, so the pump stops trying to deliver to it if the caller stops
// pulling before the sequence reaches a terminal frame.
func (dec *Decoder) reviveSequence(id int) *async.Sequence {
	s := dec.registerSink(id, wire.KindSequence)
	return async.NewSequence(func(ctx context.Context) (any, bool, any, error) {
		fr, err := s.receive(ctx)
		if err != nil {
			return nil, true, nil, err
		}
		if fr.err != nil {
			return nil, true, nil, fr.err
		}
		switch fr.status {
		case wire.StatusSeqYield:
			return fr.decoded, false, nil, nil
		case wire.StatusSeqReturn:
			return nil, true, fr.decoded, nil
		case wire.StatusSeqError:
			return nil, true, nil, causeToError(fr.decoded)
		default:
			return nil, true, nil, ErrUnknownStatus
		}
	}, func() {
		dec.retireSink(id)
		s.abandon()
	})
}
