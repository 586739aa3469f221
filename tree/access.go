package tree

import "fmt"

// UpdateFunc receives the value currently stored at a path (possibly absent)
// and returns its replacement. Returning the absent sentinel removes the entry.
type UpdateFunc func(current Value) (Value, error)

// GetIn walks path from root and returns the value found, or the absent
// sentinel when any step does not resolve.
func GetIn(root Value, path Path) Value {
	current := root
	for _, key := range path {
		current = step(current, key)
		if current.IsAbsent() {
			return current
		}
	}
	return current
}

// HasIn reports whether path resolves from root.
func HasIn(root Value, path Path) bool {
	return !GetIn(root, path).IsAbsent()
}

// SetIn returns a new root with value stored at path. Missing intermediate
// entries are created as objects; a list index equal to the list length
// appends and a larger index pads the gap with nulls. Walking through a scalar
// fails with ErrTypeMismatch.
func SetIn(root Value, path Path, value Value) (Value, error) {
	return UpdateIn(root, path, func(Value) (Value, error) {
		return value, nil
	})
}

// DeleteIn returns a new root without the entry at path. Deleting a path that
// does not resolve returns root unchanged. List elements after a deleted
// index shift down. The root itself cannot be deleted.
func DeleteIn(root Value, path Path) (Value, error) {
	if len(path) == 0 {
		return root, fmt.Errorf("%w: cannot delete the root", ErrInvalidPath)
	}
	if !HasIn(root, path) {
		return root, nil
	}
	return UpdateIn(root, path, func(Value) (Value, error) {
		return Absent(), nil
	})
}

// UpdateIn returns a new root where the value at path is replaced by fn's
// result. Only the spine from root to path is copied; every other subtree is
// shared with root. When fn fails, root is returned with the error.
func UpdateIn(root Value, path Path, fn UpdateFunc) (Value, error) {
	if fn == nil {
		return root, fmt.Errorf("%w: update function is nil", ErrInvalidPath)
	}
	next, err := updateIn(root, path, 0, fn)
	if err != nil {
		return root, err
	}
	if next.IsAbsent() {
		return root, fmt.Errorf("%w: root cannot become absent", ErrInvalidPath)
	}
	return next, nil
}

func updateIn(current Value, path Path, depth int, fn UpdateFunc) (Value, error) {
	if depth == len(path) {
		return fn(current)
	}
	key := path[depth]

	switch current.kind {
	case KindAbsent:
		child, err := updateIn(Absent(), path, depth+1, fn)
		if err != nil {
			return current, err
		}
		if child.IsAbsent() {
			return current, nil
		}
		return ObjectOf(NewObject().Set(key.Name(), child)), nil

	case KindObject:
		name := key.Name()
		existing, _ := current.object.Get(name)
		child, err := updateIn(existing, path, depth+1, fn)
		if err != nil {
			return current, err
		}
		if child.IsAbsent() && existing.IsAbsent() {
			return current, nil
		}
		return ObjectOf(current.object.Set(name, child)), nil

	case KindList:
		pos, ok := key.Position()
		if !ok {
			return current, fmt.Errorf("%w: %s is a list, key %q is not an index", ErrTypeMismatch, path[:depth], key.Name())
		}
		size := current.list.Len()
		if pos < 0 {
			pos += size
		}
		if pos < 0 {
			return current, fmt.Errorf("%w: index %s at %s", ErrIndexOutOfRange, key, path[:depth])
		}
		existing := Absent()
		if pos < size {
			existing = current.list.Get(pos)
		}
		child, err := updateIn(existing, path, depth+1, fn)
		if err != nil {
			return current, err
		}
		if child.IsAbsent() {
			if pos < size {
				return listValue(spliceList(current.list, pos, 1)), nil
			}
			return current, nil
		}
		if pos < size {
			return listValue(current.list.Set(pos, child)), nil
		}
		l := current.list
		for l.Len() < pos {
			l = l.Append(Null())
		}
		return listValue(l.Append(child)), nil

	default:
		return current, fmt.Errorf("%w: %s is a %s, cannot address %s", ErrTypeMismatch, path[:depth], current.kind, key)
	}
}

func step(current Value, key Key) Value {
	switch current.kind {
	case KindObject:
		return current.Field(key.Name())
	case KindList:
		pos, ok := key.Position()
		if !ok {
			return Absent()
		}
		return current.Index(pos)
	default:
		return Absent()
	}
}
