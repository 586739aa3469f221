package statestore

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-statestore/tree"
)

var (
	// ErrPathNotFound is returned when an operation needs an existing value at
	// a path that does not resolve.
	ErrPathNotFound = tree.ErrPathNotFound
	// ErrTypeMismatch is returned when the value at a path has the wrong kind.
	ErrTypeMismatch = tree.ErrTypeMismatch
	// ErrInvalidPath is returned for paths that cannot address an operation.
	ErrInvalidPath = tree.ErrInvalidPath
	// ErrInvalidArgument is returned when an event handler receives arguments
	// it cannot interpret.
	ErrInvalidArgument = errors.New("statestore: invalid argument")
	// ErrConflict is returned by Update when other mutations kept replacing
	// the root while its function ran.
	ErrConflict = errors.New("statestore: concurrent update conflict")
)

// OpError records the operation and path of a failed accessor or mutator.
type OpError struct {
	Op   string
	Path tree.Path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("statestore: %s path=%s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapOpError(op string, path tree.Path, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Path: path, Err: err}
}
