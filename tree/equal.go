package tree

import "reflect"

// Equal reports whether a and b hold structurally equal values. Numbers
// compare by value across int64, uint64 and float64. Object key order is not
// significant; list order is.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindAbsent:
		return true
	case KindScalar:
		return scalarEqual(a.scalar, b.scalar)
	case KindObject:
		if a.object.Len() != b.object.Len() {
			return false
		}
		equal := true
		a.object.Range(func(key string, value Value) bool {
			other, ok := b.object.Get(key)
			if !ok || !Equal(value, other) {
				equal = false
				return false
			}
			return true
		})
		return equal
	case KindList:
		if a.list == b.list {
			return true
		}
		if a.list.Len() != b.list.Len() {
			return false
		}
		for i := 0; i < a.list.Len(); i++ {
			if !Equal(a.list.Get(i), b.list.Get(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func scalarEqual(a, b any) bool {
	if af, aok := number(a); aok {
		bf, bok := number(b)
		if !bok {
			return false
		}
		ai, aint := a.(int64)
		bi, bint := b.(int64)
		if aint && bint {
			return ai == bi
		}
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch typed := v.(type) {
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}
