package statestore

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-statestore/tree"
)

// Event names registered by Bind.
const (
	EventReset = "reset"
	EventSeek  = "seek"
)

// Handler receives the arguments an event was dispatched with.
type Handler func(args ...any) error

// Controller is the event source a store binds its hooks to.
type Controller interface {
	On(event string, handler Handler)
}

// Recording describes a seek target: InitialState is installed at Path and
// deep merged into the current root.
type Recording struct {
	Path         tree.Path
	InitialState any
}

// Bind registers the reset and seek hooks on c and returns the store's
// facades.
func (s *Store) Bind(c Controller) Model {
	if c != nil {
		c.On(EventReset, func(...any) error {
			return s.Reset()
		})
		c.On(EventSeek, func(args ...any) error {
			if len(args) < 2 {
				return wrapOpError("seek", nil, fmt.Errorf("%w: seek expects (seek, recording), got %d args", ErrInvalidArgument, len(args)))
			}
			rec, err := parseRecording(args[1])
			if err != nil {
				return wrapOpError("seek", nil, err)
			}
			return s.Seek(rec)
		})
	}
	return Model{Accessors: s, Mutators: s}
}

// Reset restores the root captured at construction. A store created from nil
// (or an absent value) resets to an empty object, not to nil.
func (s *Store) Reset() error {
	return s.mutate("reset", nil, func(tree.Value) (tree.Value, error) {
		return s.initial, nil
	})
}

// Seek builds a single-key object chain along rec.Path ending in
// rec.InitialState and deep merges it into the root. Siblings along the path
// are kept. An empty path builds no chain, so the root is left as it is and
// InitialState is ignored.
func (s *Store) Seek(rec Recording) error {
	leaf := tree.From(rec.InitialState)
	return s.mutate("seek", rec.Path, func(root tree.Value) (tree.Value, error) {
		if len(rec.Path) == 0 {
			return root, nil
		}
		return tree.MergeDeep(root, tree.Nest(rec.Path, leaf)), nil
	})
}

// parseRecording accepts a Recording, a *Recording or a map with "path" and
// "initialState" entries.
func parseRecording(arg any) (Recording, error) {
	switch typed := arg.(type) {
	case Recording:
		return typed, nil
	case *Recording:
		if typed == nil {
			return Recording{}, fmt.Errorf("%w: recording is nil", ErrInvalidArgument)
		}
		return *typed, nil
	case map[string]any:
		path, err := parseRecordingPath(typed["path"])
		if err != nil {
			return Recording{}, err
		}
		return Recording{Path: path, InitialState: typed["initialState"]}, nil
	case nil:
		return Recording{}, fmt.Errorf("%w: recording is nil", ErrInvalidArgument)
	default:
		return Recording{}, fmt.Errorf("%w: unsupported recording type %T", ErrInvalidArgument, arg)
	}
}

func parseRecordingPath(raw any) (tree.Path, error) {
	switch typed := raw.(type) {
	case nil:
		return tree.Path{}, nil
	case tree.Path:
		return typed, nil
	case string:
		return tree.ParsePath(strings.TrimSpace(typed)), nil
	case []string:
		path := make(tree.Path, len(typed))
		for i, name := range typed {
			path[i] = tree.Field(name)
		}
		return path, nil
	case []any:
		path, err := tree.PathOf(typed...)
		if err != nil {
			return nil, fmt.Errorf("%w: recording path: %v", ErrInvalidArgument, err)
		}
		return path, nil
	default:
		return nil, fmt.Errorf("%w: unsupported recording path type %T", ErrInvalidArgument, raw)
	}
}
