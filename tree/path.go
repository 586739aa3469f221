package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is one step of a Path: either an object field or a list index.
type Key struct {
	name    string
	index   int
	isIndex bool
}

// Field returns a key addressing the object entry name.
func Field(name string) Key {
	return Key{name: name}
}

// Index returns a key addressing list position i. Negative positions count
// from the end of the list.
func Index(i int) Key {
	return Key{index: i, isIndex: true}
}

// IsIndex reports whether k was built with Index.
func (k Key) IsIndex() bool {
	return k.isIndex
}

// Name returns the object field addressed by k. Index keys render as their
// decimal text, matching how they resolve against objects.
func (k Key) Name() string {
	if k.isIndex {
		return strconv.Itoa(k.index)
	}
	return k.name
}

// Position returns the list index addressed by k. Field keys whose text is a
// decimal integer resolve as that index.
func (k Key) Position() (int, bool) {
	if k.isIndex {
		return k.index, true
	}
	i, err := strconv.Atoi(k.name)
	if err != nil {
		return 0, false
	}
	return i, true
}

func (k Key) String() string {
	if k.isIndex {
		return "[" + strconv.Itoa(k.index) + "]"
	}
	return k.name
}

// Path is an ordered sequence of keys. The empty path addresses the root.
type Path []Key

// P builds a Path from strings (fields), ints (indices) and Keys. It panics
// on any other part type, so it is meant for literals in code.
func P(parts ...any) Path {
	path, err := PathOf(parts...)
	if err != nil {
		panic(err)
	}
	return path
}

// PathOf is the error-returning form of P.
func PathOf(parts ...any) (Path, error) {
	path := make(Path, 0, len(parts))
	for i, part := range parts {
		switch typed := part.(type) {
		case Key:
			path = append(path, typed)
		case string:
			path = append(path, Field(typed))
		case int:
			path = append(path, Index(typed))
		case int64:
			path = append(path, Index(int(typed)))
		case Path:
			path = append(path, typed...)
		default:
			return nil, fmt.Errorf("%w: part %d has unsupported type %T", ErrInvalidPath, i, part)
		}
	}
	return path, nil
}

// ParsePath splits a dotted path such as "todos.0.title" into field keys.
// An empty string yields the root path.
func ParsePath(dotted string) Path {
	if dotted == "" {
		return Path{}
	}
	segments := strings.Split(dotted, ".")
	path := make(Path, len(segments))
	for i, segment := range segments {
		path[i] = Field(segment)
	}
	return path
}

// Append returns a new path with keys added; p is not modified.
func (p Path) Append(keys ...Key) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// String renders p in dotted form, with indices as "[n]".
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	var b strings.Builder
	for i, key := range p {
		if i > 0 && !key.isIndex {
			b.WriteByte('.')
		}
		b.WriteString(key.String())
	}
	return b.String()
}
