package statestore

import "github.com/goliatone/go-statestore/tree"

// Import deep merges value into the root. value must convert to an object.
func (s *Store) Import(value any) error {
	incoming := tree.From(value)
	return s.mutate("import", nil, func(root tree.Value) (tree.Value, error) {
		if !incoming.IsObject() {
			return root, kindError(incoming, "an object")
		}
		return tree.MergeDeep(root, incoming), nil
	})
}

// Set stores value at path, creating missing intermediate objects. Setting
// the root replaces it and requires an object.
func (s *Store) Set(path tree.Path, value any) error {
	incoming := tree.From(value)
	return s.mutate("set", path, func(root tree.Value) (tree.Value, error) {
		if len(path) == 0 && !incoming.IsObject() {
			return root, kindError(incoming, "an object")
		}
		return tree.SetIn(root, path, incoming)
	})
}

// Unset deletes the value at path. When keys are given, each path+key entry
// is deleted instead and path itself is kept. Missing entries are ignored.
func (s *Store) Unset(path tree.Path, keys ...string) error {
	return s.mutate("unset", path, func(root tree.Value) (tree.Value, error) {
		if len(keys) == 0 {
			return tree.DeleteIn(root, path)
		}
		next := root
		for _, key := range keys {
			var err error
			next, err = tree.DeleteIn(next, path.Append(tree.Field(key)))
			if err != nil {
				return root, err
			}
		}
		return next, nil
	})
}

// Push appends value to the list at path.
func (s *Store) Push(path tree.Path, value any) error {
	item := tree.From(value)
	return s.updateList("push", path, func(list tree.Value) (tree.Value, error) {
		return tree.Append(list, item)
	})
}

// Splice removes deleteCount elements from the list at path starting at start
// and inserts items in their place. A negative start counts from the end;
// start and deleteCount are clamped to the list bounds.
func (s *Store) Splice(path tree.Path, start, deleteCount int, items ...any) error {
	values := fromAll(items)
	return s.updateList("splice", path, func(list tree.Value) (tree.Value, error) {
		return tree.Splice(list, start, deleteCount, values...)
	})
}

// Merge deep merges value into the subtree at path, creating path when it
// does not resolve.
func (s *Store) Merge(path tree.Path, value any) error {
	incoming := tree.From(value)
	return s.mutate("merge", path, func(root tree.Value) (tree.Value, error) {
		if len(path) == 0 && !incoming.IsObject() {
			return root, kindError(incoming, "an object")
		}
		return tree.MergeIn(root, path, incoming)
	})
}

// Concat appends values to the list at path. Values that convert to lists are
// spread; anything else is appended as one element.
func (s *Store) Concat(path tree.Path, values ...any) error {
	var items []tree.Value
	for _, value := range values {
		converted := tree.From(value)
		if converted.IsList() {
			items = append(items, converted.Values()...)
			continue
		}
		items = append(items, converted)
	}
	return s.updateList("concat", path, func(list tree.Value) (tree.Value, error) {
		return tree.Append(list, items...)
	})
}

// Pop drops the last element of the list at path. An empty list is left as
// is.
func (s *Store) Pop(path tree.Path) error {
	return s.updateList("pop", path, func(list tree.Value) (tree.Value, error) {
		if list.Len() == 0 {
			return list, nil
		}
		return tree.Splice(list, list.Len()-1, 1)
	})
}

// Shift drops the first element of the list at path. An empty list is left
// as is.
func (s *Store) Shift(path tree.Path) error {
	return s.updateList("shift", path, func(list tree.Value) (tree.Value, error) {
		return tree.Splice(list, 0, 1)
	})
}

// Unshift inserts values at the front of the list at path, keeping their
// order.
func (s *Store) Unshift(path tree.Path, values ...any) error {
	items := fromAll(values)
	return s.updateList("unshift", path, func(list tree.Value) (tree.Value, error) {
		return tree.Prepend(list, items...)
	})
}

// Update replaces the value at path with fn's result. fn receives the absent
// sentinel when path does not resolve; returning it deletes the entry.
//
// fn runs without holding the store lock, so it may read the store. When
// another mutation commits while fn runs, fn is called again with the new
// value; after repeated conflicts Update returns ErrConflict. fn should not
// mutate the same store, since each such call forces a retry.
func (s *Store) Update(path tree.Path, fn tree.UpdateFunc) error {
	return s.mutateDetached("update", path, func(root tree.Value) (tree.Value, error) {
		return tree.UpdateIn(root, path, fn)
	})
}

// updateList runs fn against the list at path. The target must already exist
// and be a list.
func (s *Store) updateList(op string, path tree.Path, fn func(list tree.Value) (tree.Value, error)) error {
	return s.mutate(op, path, func(root tree.Value) (tree.Value, error) {
		target := tree.GetIn(root, path)
		if !target.IsList() {
			return root, kindError(target, "a list")
		}
		next, err := fn(target)
		if err != nil {
			return root, err
		}
		return tree.SetIn(root, path, next)
	})
}

func fromAll(values []any) []tree.Value {
	out := make([]tree.Value, len(values))
	for i, value := range values {
		out[i] = tree.From(value)
	}
	return out
}
