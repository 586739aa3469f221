package statestore

import (
	"github.com/goliatone/go-statestore/internal/hydrate"
	"github.com/goliatone/go-statestore/tree"
)

// DecodeOption configures Decode.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeContext identifies the subtree handed to decode hooks.
type DecodeContext = hydrate.Context

// WithDecodePreHook runs hook on the exported payload before decoding.
func WithDecodePreHook[T any](hook func(DecodeContext, any) (any, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](hook)
}

// WithDecodePostHook runs hook on the decoded value.
func WithDecodePostHook[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](hook)
}

// WithKnownFields rejects payload keys that have no matching field in T.
func WithKnownFields[T any]() DecodeOption[T] {
	return hydrate.WithKnownFields[T]()
}

// Decode exports the subtree at path and decodes it into T. Field mapping
// follows gopkg.in/yaml.v3 struct tags.
func Decode[T any](s *Store, path tree.Path, opts ...DecodeOption[T]) (T, error) {
	var zero T
	target := s.Get(path)
	if target.IsAbsent() {
		return zero, wrapOpError("decode", path, ErrPathNotFound)
	}
	ctx := DecodeContext{StoreID: s.ID(), Path: path.String()}
	out, err := hydrate.NewDecoder(opts...).Decode(ctx, target.Export())
	if err != nil {
		return zero, wrapOpError("decode", path, err)
	}
	return out, nil
}
