package stream

import (
	"context"
	"reflect"
	"sync"

	"github.com/emirpasic/gods/sets/hashset"

	"github.com/tidenly/streamcodec/valuecodec"
	"github.com/tidenly/streamcodec/wire"
)

// Encoder multiplexes an arbitrary number of concurrently-progressing
// producers (Futures and Sequences discovered while flattening a value
// tree) into one chunk stream. It is not safe for concurrent use:
// single-threaded cooperative scheduling is assumed, and EncodeStream's
// returned ChunkIterator must be pulled by one logical consumer at a time.
type Encoder struct {
	opts  Options
	codec *valuecodec.Codec

	mu      sync.Mutex
	counter int
	active  *hashset.Set // of *entry
}

// EncodeStream flattens value, emitting the root chunk first, then returns
// a ChunkIterator that yields one producer chunk per call to Next until
// every producer discovered (directly or transitively) has delivered its
// terminal frame.
func EncodeStream(ctx context.Context, value any, opts Options) (ChunkIterator, error) {
	enc := &Encoder{
		opts:   opts,
		active: hashset.New(),
	}
	reducers := make(map[string]valuecodec.Reducer)
	for tag, r := range builtinReducers(enc) {
		reducers[tag] = r
	}
	for tag, r := range opts.Reducers {
		reducers[tag] = r
	}
	enc.codec = valuecodec.New(reducers, nil)

	root, err := enc.codec.Stringify(value)
	if err != nil {
		return nil, err
	}

	first := true
	return ChunkIterFunc(func(ctx context.Context) (string, bool, error) {
		if first {
			first = false
			return root, true, nil
		}
		return enc.next(ctx)
	}), nil
}

// register allocates a new producer id, arms its first pending frame, and
// adds it to the active set. It is called from reducer closures while
// Stringify walks a value tree, which may happen either during the initial
// root flatten, on the goroutine that called EncodeStream, or, for nested
// producers, while formatting another producer's frame payload on that
// producer's arm goroutine; mu guards counter and active against both.
func (enc *Encoder) register(kind wire.Kind, it producerIter) int {
	enc.mu.Lock()
	enc.counter++
	id := enc.counter
	e := &entry{id: id, kind: kind, it: it, pending: make(chan frameResult, 1)}
	enc.active.Add(e)
	enc.mu.Unlock()

	enc.arm(e)
	return id
}

func (enc *Encoder) arm(e *entry) {
	go func() {
		// A detached context: a producer's own frame computation is not
		// tied to any one Next call's ctx, since it may still be in flight
		// when Next returns and is called again with a new ctx value (the
		// caller is free to vary ctx per pull). Abandonment is driven by
		// closeProducer, not by this context.
		status, payload, terminal := e.it.next(context.Background())
		e.pending <- frameResult{status: status, payload: payload, terminal: terminal}
	}()
}

// next runs one step of the fair-race multiplexer: block until any active
// producer's pending frame arrives (or ctx is canceled), emit it, and rearm
// that producer if it wasn't terminal.
func (enc *Encoder) next(ctx context.Context) (string, bool, error) {
	for {
		enc.mu.Lock()
		values := enc.active.Values()
		enc.mu.Unlock()
		if len(values) == 0 {
			return "", false, nil
		}

		cases := make([]reflect.SelectCase, len(values)+1)
		entries := make([]*entry, len(values))
		for i, v := range values {
			e := v.(*entry)
			entries[i] = e
			cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(e.pending)}
		}
		cases[len(values)] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

		chosen, recv, _ := reflect.Select(cases)
		if chosen == len(values) {
			enc.abandon()
			return "", false, ctx.Err()
		}

		e := entries[chosen]
		fr := recv.Interface().(frameResult)

		enc.mu.Lock()
		enc.active.Remove(e)
		enc.mu.Unlock()

		if !fr.terminal {
			enc.arm(e)
			enc.mu.Lock()
			enc.active.Add(e)
			enc.mu.Unlock()
		}

		return wire.FormatChunk(e.id, fr.status, fr.payload), true, nil
	}
}

// abandon tears down every remaining producer concurrently: it gathers all
// of their early-termination results and waits for all of them to settle
// (not all to succeed) before returning.
func (enc *Encoder) abandon() {
	enc.mu.Lock()
	values := enc.active.Values()
	enc.active.Clear()
	enc.mu.Unlock()

	var wg sync.WaitGroup
	for _, v := range values {
		e := v.(*entry)
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.it.closeProducer()
		}()
	}
	wg.Wait()
}

// safeCausePayload encodes err for an error frame, trying opts.CoerceError
// as a fallback, and finally a hand-built inline encoding that cannot fail,
// so that one producer's encoding bug never aborts the whole stream.
func (enc *Encoder) safeCausePayload(err error) string {
	if text, encErr := enc.codec.Stringify(err); encErr == nil {
		return text
	}
	if enc.opts.CoerceError != nil {
		if text, encErr := enc.codec.Stringify(enc.opts.CoerceError(err)); encErr == nil {
			return text
		}
	}
	return fallbackErrorPayload(err)
}
