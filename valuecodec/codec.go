// Package valuecodec implements the synchronous, non-async value codec that
// the streaming core treats as a black box: it flattens an arbitrary value
// tree of maps, slices, and scalars to self-delimited JSON text, and parses
// that text back, dispatching on a map of type-tagged reducers/revivers for
// anything that isn't plain data.
//
// Dispatch is by a string tag looked up in a map of registered
// constructors/decoders, open to caller-supplied tags rather than a fixed
// switch over a closed set of types.
package valuecodec

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Reducer inspects v and, if it recognizes the value, returns a payload to
// encode in its place along with applies=true. Reducers are tried in tag
// order; the first one that applies wins.
type Reducer func(v any) (payload any, applies bool)

// Reviver reconstructs a value from the payload a Reducer produced for the
// same tag.
type Reviver func(payload any) (any, error)

// TagKey and ValueKey are the two keys a placeholder object carries on the
// wire: {TagKey: "<tag>", ValueKey: <payload>}. Exported so that callers
// building a placeholder by hand (e.g. a guaranteed-safe fallback encoding
// that must bypass the reducer map) can match the shape Parse expects.
const (
	TagKey   = "$t"
	ValueKey = "$v"
)

// Codec holds one encode/decode pair's reducer and reviver maps. A Codec
// built for encoding only needs reducers; one built for decoding only needs
// revivers.
type Codec struct {
	tags     []string
	reducers map[string]Reducer
	revivers map[string]Reviver
}

// New builds a Codec from the given reducer and reviver maps. Either may be
// nil.
func New(reducers map[string]Reducer, revivers map[string]Reviver) *Codec {
	tags := make([]string, 0, len(reducers))
	for tag := range reducers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return &Codec{tags: tags, reducers: reducers, revivers: revivers}
}

// Stringify flattens v, replacing any value a registered reducer recognizes
// with a tagged placeholder, and returns the JSON text of the result.
func (c *Codec) Stringify(v any) (string, error) {
	flat, err := c.flatten(v)
	if err != nil {
		return "", err
	}
	buf, err := json.Marshal(flat)
	if err != nil {
		return "", errors.Wrap(err, "valuecodec: marshal flattened value")
	}
	return string(buf), nil
}

func (c *Codec) flatten(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			fv, err := c.flatten(child)
			if err != nil {
				return nil, err
			}
			out[k] = fv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			fv, err := c.flatten(child)
			if err != nil {
				return nil, err
			}
			out[i] = fv
		}
		return out, nil
	}
	for _, tag := range c.tags {
		payload, applies := c.reducers[tag](v)
		if !applies {
			continue
		}
		flatPayload, err := c.flatten(payload)
		if err != nil {
			return nil, err
		}
		return map[string]any{TagKey: tag, ValueKey: flatPayload}, nil
	}
	switch v.(type) {
	case nil, bool, string, float64, int, int32, int64:
		return v, nil
	}
	// Fall back to a generic JSON round trip for plain structs/values that
	// don't match any registered reducer. Values that aren't JSON-encodable
	// this way are a genuine encode-value failure.
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Errorf("valuecodec: cannot encode value of type %T: no reducer applies and it is not plain JSON data", v)
	}
	var generic any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return nil, errors.Wrapf(err, "valuecodec: cannot encode value of type %T", v)
	}
	return generic, nil
}

// Parse parses JSON text and unflattens it, reviving any tagged placeholder
// via the registered reviver for its tag.
func (c *Codec) Parse(s string) (any, error) {
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, errors.Wrapf(err, "valuecodec: unmarshal %q", s)
	}
	return c.unflatten(raw)
}

func (c *Codec) unflatten(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if tag, ok := x[TagKey].(string); ok {
			if rawPayload, hasPayload := x[ValueKey]; hasPayload && len(x) == 2 {
				payload, err := c.unflatten(rawPayload)
				if err != nil {
					return nil, err
				}
				reviver, ok := c.revivers[tag]
				if !ok {
					return nil, errors.Errorf("valuecodec: no reviver registered for tag %q", tag)
				}
				return reviver(payload)
			}
		}
		out := make(map[string]any, len(x))
		for k, child := range x {
			uv, err := c.unflatten(child)
			if err != nil {
				return nil, err
			}
			out[k] = uv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			uv, err := c.unflatten(child)
			if err != nil {
				return nil, err
			}
			out[i] = uv
		}
		return out, nil
	default:
		return x, nil
	}
}
