package tree

import "github.com/benbjohnson/immutable"

func listSlice[T any](l *immutable.List[T]) []T {
	if l == nil {
		return []T{}
	}
	out := make([]T, 0, l.Len())
	itr := l.Iterator()
	for !itr.Done() {
		_, value := itr.Next()
		out = append(out, value)
	}
	return out
}

// spliceList removes deleteCount elements at start and inserts items in their
// place. start and deleteCount must already be clamped to the list bounds.
func spliceList[T any](l *immutable.List[T], start, deleteCount int, items ...T) *immutable.List[T] {
	size := l.Len()
	if deleteCount == 0 && len(items) == 0 {
		return l
	}
	if start == size {
		for _, item := range items {
			l = l.Append(item)
		}
		return l
	}
	if start == 0 && deleteCount == 0 {
		for i := len(items) - 1; i >= 0; i-- {
			l = l.Prepend(items[i])
		}
		return l
	}

	out := l.Slice(0, start)
	for _, item := range items {
		out = out.Append(item)
	}
	tail := l.Slice(start+deleteCount, size)
	itr := tail.Iterator()
	for !itr.Done() {
		_, value := itr.Next()
		out = out.Append(value)
	}
	return out
}

// Splice applies JavaScript Array.prototype.splice semantics to the list held
// by v: a negative start counts from the end, start and deleteCount are
// clamped to the list bounds and items are inserted at start. v must be a
// list.
func Splice(v Value, start, deleteCount int, items ...Value) (Value, error) {
	if !v.IsList() {
		if v.IsAbsent() {
			return v, ErrPathNotFound
		}
		return v, ErrTypeMismatch
	}
	size := v.list.Len()
	if start < 0 {
		start += size
		if start < 0 {
			start = 0
		}
	}
	if start > size {
		start = size
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > size-start {
		deleteCount = size - start
	}
	stored := make([]Value, len(items))
	for i, item := range items {
		stored[i] = present(item)
	}
	return listValue(spliceList(v.list, start, deleteCount, stored...)), nil
}

// Append returns the list v with items added at the end.
func Append(v Value, items ...Value) (Value, error) {
	return Splice(v, v.Len(), 0, items...)
}

// Prepend returns the list v with items inserted at the front, preserving
// their order.
func Prepend(v Value, items ...Value) (Value, error) {
	return Splice(v, 0, 0, items...)
}
