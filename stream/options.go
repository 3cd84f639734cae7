package stream

import "github.com/tidenly/streamcodec/valuecodec"

// Options configures EncodeStream.
type Options struct {
	// Reducers are additional type-tagged encoders merged into the
	// synchronous codec, alongside the built-in future/sequence/error
	// reducers. A caller-supplied tag overrides a built-in one of the same
	// name.
	Reducers map[string]valuecodec.Reducer
	// CoerceError, if set, is a fallback used by safeCause when an error
	// cause cannot be encoded directly: the cause is transformed once and
	// re-encoded.
	CoerceError func(error) error
}

// DecodeOptions configures DecodeStream.
type DecodeOptions struct {
	// Revivers are additional type-tagged decoders merged into the
	// synchronous codec, alongside the built-in future/sequence/error
	// revivers. A caller-supplied tag overrides a built-in one of the same
	// name.
	Revivers map[string]valuecodec.Reviver
}
