package hydrate

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Context identifies the subtree being decoded.
type Context struct {
	StoreID string
	Path    string
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, any) (any, error)

// PostHook lets callers adjust or validate the hydrated value after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default YAML node decoding when provided.
type CustomDecoder[T any] func(Context, any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts exported state into strongly typed values. Field mapping
// follows gopkg.in/yaml.v3: `yaml` struct tags, or lowercased field names.
type Decoder[T any] struct {
	preHooks    []PreHook
	postHooks   []PostHook[T]
	knownFields bool
	custom      CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithKnownFields rejects payload keys that have no matching struct field.
func WithKnownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.knownFields = true
	}
}

// WithCustomDecoder replaces the default decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. payload is
// expected to be a plain exported value (maps, slices, scalars); hooks may
// mutate it freely.
func (d *Decoder[T]) Decode(ctx Context, payload any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil at path %q", ctx.Path)
	}

	current := payload
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook at path %q failed: %w", ctx.Path, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		decoded, err := d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder at path %q failed: %w", ctx.Path, err)
		}
		result = decoded
	} else if err := d.decodeNode(current, &result); err != nil {
		return zero, fmt.Errorf("hydrate: decode path %q: %w", ctx.Path, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook at path %q failed: %w", ctx.Path, err)
		}
	}

	return result, nil
}

// decodeNode round-trips payload through a yaml.Node. KnownFields is only
// honoured by yaml.Decoder, so strict mode goes through an encoded document.
func (d *Decoder[T]) decodeNode(payload any, out *T) error {
	if !d.knownFields {
		var node yaml.Node
		if err := node.Encode(payload); err != nil {
			return err
		}
		return node.Decode(out)
	}
	raw, err := yaml.Marshal(payload)
	if err != nil {
		return err
	}
	return strictUnmarshal(raw, out)
}

func strictUnmarshal(raw []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}
