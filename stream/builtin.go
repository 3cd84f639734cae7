package stream

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/tidenly/streamcodec/async"
	"github.com/tidenly/streamcodec/valuecodec"
	"github.com/tidenly/streamcodec/wire"
)

const (
	tagFuture   = "future"
	tagSequence = "sequence"
	tagError    = "error"
)

// builtinReducers returns the future/sequence/error reducers, closing over
// enc so that encountering a *async.Future or *async.Sequence anywhere in
// the value tree registers it as a new producer.
func builtinReducers(enc *Encoder) map[string]valuecodec.Reducer {
	return map[string]valuecodec.Reducer{
		tagFuture: func(v any) (any, bool) {
			f, ok := v.(*async.Future)
			if !ok {
				return nil, false
			}
			return float64(enc.register(wire.KindFuture, &futureIter{enc: enc, f: f})), true
		},
		tagSequence: func(v any) (any, bool) {
			seq, ok := v.(*async.Sequence)
			if !ok {
				return nil, false
			}
			return float64(enc.register(wire.KindSequence, &sequenceIter{enc: enc, seq: seq})), true
		},
		tagError: reduceError,
	}
}

// reduceError is the default encoding for a bare Go error: its message,
// nothing more. It is always applicable, so safeCause always has somewhere
// to fall back to short of the last-resort inline encoding.
func reduceError(v any) (any, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	return map[string]any{"msg": err.Error()}, true
}

func reviveError(payload any) (any, error) {
	m, _ := payload.(map[string]any)
	msg, _ := m["msg"].(string)
	return errors.New(msg), nil
}

// builtinRevivers returns the future/sequence/error revivers, closing over
// dec so that a placeholder id registers a new sink and returns a live
// Future/Sequence bound to it.
func builtinRevivers(dec *Decoder) map[string]valuecodec.Reviver {
	return map[string]valuecodec.Reviver{
		tagFuture: func(payload any) (any, error) {
			id, err := payloadID(payload)
			if err != nil {
				return nil, err
			}
			return dec.reviveFuture(id), nil
		},
		tagSequence: func(payload any) (any, error) {
			id, err := payloadID(payload)
			if err != nil {
				return nil, err
			}
			return dec.reviveSequence(id), nil
		},
		tagError: reviveError,
	}
}

// causeToError adapts a revived error-frame cause, which may or may not
// itself be a Go error (a caller's custom reducer for tagError-shaped data
// could revive it as anything), into one.
func causeToError(cause any) error {
	if err, ok := cause.(error); ok {
		return err
	}
	return errors.Errorf("stream: producer failed: %v", cause)
}

func payloadID(payload any) (int, error) {
	f, ok := payload.(float64)
	if !ok {
		return 0, errors.Errorf("stream: placeholder payload %v is not a producer id", payload)
	}
	return int(f), nil
}

// fallbackErrorPayload builds the tagError wire shape directly with
// encoding/json, bypassing the reducer map entirely, so it cannot itself
// fail to encode. It is the last resort in Encoder.safeCausePayload.
func fallbackErrorPayload(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	b, jsonErr := json.Marshal(map[string]any{valuecodec.TagKey: tagError, valuecodec.ValueKey: map[string]any{"msg": msg}})
	if jsonErr != nil {
		return `{"$t":"error","$v":{"msg":"encoding failure"}}`
	}
	return string(b)
}
