package tree

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"github.com/benbjohnson/immutable"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindAbsent marks the zero Value returned when a lookup does not resolve.
	KindAbsent Kind = iota
	// KindScalar holds nil, bool, int64, float64, string or an opaque Go value.
	KindScalar
	// KindObject holds an insertion-ordered mapping of string keys.
	KindObject
	// KindList holds an ordered sequence.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is an immutable node of the state tree. Copying a Value is cheap and
// safe: none of its operations modify the receiver.
type Value struct {
	kind   Kind
	scalar any
	object Object
	list   *immutable.List[Value]
}

// Absent returns the sentinel used for unresolved lookups.
func Absent() Value {
	return Value{}
}

// Null returns a scalar holding nil.
func Null() Value {
	return Value{kind: KindScalar}
}

// Scalar wraps v as a scalar value. Numbers are normalised to int64 or float64
// (uint64 values above math.MaxInt64 stay uint64) and named bool/string types
// are converted to their underlying type so equal inputs compare equal.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: normalizeScalar(v)}
}

// ObjectOf wraps an Object as a Value.
func ObjectOf(o Object) Value {
	return Value{kind: KindObject, object: o.ensure()}
}

// EmptyObject returns a Value holding an object with no keys.
func EmptyObject() Value {
	return ObjectOf(NewObject())
}

// ListOf returns a list Value holding values in order. Absent entries are
// stored as null.
func ListOf(values ...Value) Value {
	l := immutable.NewList[Value]()
	for _, value := range values {
		l = l.Append(present(value))
	}
	return Value{kind: KindList, list: l}
}

// EmptyList returns a Value holding a list with no elements.
func EmptyList() Value {
	return ListOf()
}

func listValue(l *immutable.List[Value]) Value {
	if l == nil {
		l = immutable.NewList[Value]()
	}
	return Value{kind: KindList, list: l}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether v is the absent sentinel.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// IsNull reports whether v is a scalar holding nil.
func (v Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// IsObject reports whether v holds an object.
func (v Value) IsObject() bool {
	return v.kind == KindObject
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool {
	return v.kind == KindList
}

// Scalar returns the scalar payload and whether v is a scalar.
func (v Value) Scalar() (any, bool) {
	if v.kind != KindScalar {
		return nil, false
	}
	return detachScalar(v.scalar), true
}

// detachScalar copies mutable payloads so callers never hold the stored one.
func detachScalar(v any) any {
	if b, ok := v.([]byte); ok {
		return bytes.Clone(b)
	}
	return v
}

// Object returns the object payload and whether v is an object.
func (v Value) Object() (Object, bool) {
	if v.kind != KindObject {
		return Object{}, false
	}
	return v.object, true
}

// Len returns the number of keys of an object or elements of a list, and zero
// for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return v.object.Len()
	case KindList:
		return v.list.Len()
	default:
		return 0
	}
}

// Index returns the list element at i. Negative indices count from the end.
// Non-lists and out of range indices yield the absent sentinel.
func (v Value) Index(i int) Value {
	if v.kind != KindList {
		return Absent()
	}
	if i < 0 {
		i += v.list.Len()
	}
	if i < 0 || i >= v.list.Len() {
		return Absent()
	}
	return v.list.Get(i)
}

// Field returns the object entry for name, or the absent sentinel.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Absent()
	}
	value, ok := v.object.Get(name)
	if !ok {
		return Absent()
	}
	return value
}

// Values returns list elements, or object values in key order. The returned
// slice is a fresh copy.
func (v Value) Values() []Value {
	switch v.kind {
	case KindList:
		return listSlice(v.list)
	case KindObject:
		out := make([]Value, 0, v.object.Len())
		v.object.Range(func(_ string, value Value) bool {
			out = append(out, value)
			return true
		})
		return out
	default:
		return nil
	}
}

// String renders the exported form of v for debugging.
func (v Value) String() string {
	if v.kind == KindAbsent {
		return "<absent>"
	}
	return fmt.Sprintf("%v", v.Export())
}

func present(v Value) Value {
	if v.kind == KindAbsent {
		return Null()
	}
	return v
}

func normalizeScalar(v any) any {
	switch typed := v.(type) {
	case nil, bool, string, int64, float64:
		return typed
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case uint:
		return normalizeUnsigned(uint64(typed))
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return normalizeUnsigned(typed)
	case float32:
		return float64(typed)
	case []byte:
		return bytes.Clone(typed)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return normalizeUnsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return v
	}
}

func normalizeUnsigned(u uint64) any {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}
