package tree

import "errors"

var (
	// ErrPathNotFound indicates an operation required an existing value at a
	// path that does not resolve.
	ErrPathNotFound = errors.New("tree: path not found")
	// ErrTypeMismatch indicates the value at a path has the wrong kind for the
	// requested operation.
	ErrTypeMismatch = errors.New("tree: type mismatch")
	// ErrInvalidPath indicates a path that cannot address the requested
	// operation (for example deleting the root).
	ErrInvalidPath = errors.New("tree: invalid path")
	// ErrIndexOutOfRange indicates a list index that falls before the first
	// element after negative index resolution.
	ErrIndexOutOfRange = errors.New("tree: index out of range")
)
