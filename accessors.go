package statestore

import (
	"fmt"

	"github.com/goliatone/go-statestore/tree"
)

// Get returns the value at path, or the absent sentinel when path does not
// resolve.
func (s *Store) Get(path tree.Path) tree.Value {
	return tree.GetIn(s.Snapshot(), path)
}

// Has reports whether path resolves.
func (s *Store) Has(path tree.Path) bool {
	return tree.HasIn(s.Snapshot(), path)
}

// Export returns the whole state as plain Go values: map[string]any, []any
// and scalars.
func (s *Store) Export() any {
	return s.Snapshot().Export()
}

// ExportOrdered is Export with objects rendered as tree.Pairs so key order
// survives.
func (s *Store) ExportOrdered() any {
	return s.Snapshot().ExportOrdered()
}

// Keys returns the keys of the object at path in insertion order.
func (s *Store) Keys(path tree.Path) ([]string, error) {
	target := s.Get(path)
	obj, ok := target.Object()
	if !ok {
		return nil, wrapOpError("keys", path, kindError(target, "an object"))
	}
	return obj.Keys(), nil
}

// FindWhere scans the list (or object values) at path in order and returns
// the first element holding every predicate key with an equal value. Matching
// counts the shared keys with equal values and compares the count with the
// predicate size, so an empty predicate matches the first element. When
// nothing matches the absent sentinel is returned with a nil error.
func (s *Store) FindWhere(path tree.Path, predicate map[string]any) (tree.Value, error) {
	elements, err := s.collection(path)
	if err != nil {
		return tree.Absent(), wrapOpError("findWhere", path, err)
	}

	wanted := make(map[string]tree.Value, len(predicate))
	for key, value := range predicate {
		wanted[key] = tree.From(value)
	}

	for _, element := range elements {
		if matchCount(element, wanted) == len(wanted) {
			return element, nil
		}
	}
	return tree.Absent(), nil
}

func matchCount(element tree.Value, wanted map[string]tree.Value) int {
	obj, ok := element.Object()
	if !ok {
		return 0
	}
	count := 0
	for key, value := range wanted {
		if field, ok := obj.Get(key); ok && tree.Equal(field, value) {
			count++
		}
	}
	return count
}

// collection returns the elements of the list or object at path.
func (s *Store) collection(path tree.Path) ([]tree.Value, error) {
	target := s.Get(path)
	if !target.IsList() && !target.IsObject() {
		return nil, kindError(target, "a list or object")
	}
	return target.Values(), nil
}

func kindError(target tree.Value, want string) error {
	if target.IsAbsent() {
		return ErrPathNotFound
	}
	return fmt.Errorf("%w: want %s, found %s", ErrTypeMismatch, want, target.Kind())
}
