package tree

// MergeDeep returns base with incoming merged into it. When both sides are
// objects the keys are merged recursively: keys already in base keep their
// position and new keys are appended in incoming's order. For every other
// pairing incoming replaces base outright. An absent incoming leaves base as
// is.
func MergeDeep(base, incoming Value) Value {
	if incoming.IsAbsent() {
		return base
	}
	if base.kind != KindObject || incoming.kind != KindObject {
		return incoming
	}

	merged := base.object
	incoming.object.Range(func(key string, value Value) bool {
		if existing, ok := merged.Get(key); ok {
			merged = merged.Set(key, MergeDeep(existing, value))
			return true
		}
		merged = merged.Set(key, value)
		return true
	})
	return ObjectOf(merged)
}

// MergeAll folds values left to right with MergeDeep, so later values win.
func MergeAll(values ...Value) Value {
	if len(values) == 0 {
		return Absent()
	}
	merged := values[0]
	for _, value := range values[1:] {
		merged = MergeDeep(merged, value)
	}
	return merged
}

// MergeIn deep merges value into the subtree at path, creating the path when
// it does not resolve.
func MergeIn(root Value, path Path, value Value) (Value, error) {
	return UpdateIn(root, path, func(current Value) (Value, error) {
		if current.IsAbsent() {
			return value, nil
		}
		return MergeDeep(current, value), nil
	})
}

// Nest wraps leaf in a chain of single-key objects, one per path key, so that
// GetIn(Nest(path, leaf), path) returns leaf. Index keys become fields named
// by their decimal text.
func Nest(path Path, leaf Value) Value {
	nested := present(leaf)
	for i := len(path) - 1; i >= 0; i-- {
		nested = ObjectOf(NewObject().Set(path[i].Name(), nested))
	}
	return nested
}
