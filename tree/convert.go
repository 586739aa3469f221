package tree

import (
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

// Pair is one entry of an ordered object literal.
type Pair struct {
	Key   string
	Value any
}

// Pairs is an ordered object literal. Go maps carry no key order, so Pairs
// (or a yaml.Node) is the way to build objects whose key order matters.
type Pairs []Pair

// From deep-converts a plain Go value into a Value.
//
//   - Value and Object are used as is.
//   - Pairs and yaml mapping nodes become objects in their declared order.
//   - Maps with string keys become objects with keys in sorted order.
//   - Slices and arrays (except []byte) become lists. A []byte becomes a
//     scalar holding a copy.
//   - Everything else becomes a scalar, see Scalar for number normalisation.
//
// Cyclic input is not supported.
func From(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Null()
	case Value:
		return typed
	case Object:
		return ObjectOf(typed)
	case Pairs:
		return fromPairs(typed)
	case *yaml.Node:
		return fromYAML(typed)
	case yaml.Node:
		return fromYAML(&typed)
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, key := range keys {
			obj = obj.Set(key, From(typed[key]))
		}
		return ObjectOf(obj)
	case []any:
		values := make([]Value, len(typed))
		for i, item := range typed {
			values[i] = From(item)
		}
		return ListOf(values...)
	case []byte:
		return Scalar(typed)
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromPairs(pairs Pairs) Value {
	obj := NewObject()
	for _, pair := range pairs {
		obj = obj.Set(pair.Key, From(pair.Value))
	}
	return ObjectOf(obj)
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Scalar(rv.Interface())
		}
		if rv.IsNil() {
			return Null()
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return keys[i].String() < keys[j].String()
		})
		obj := NewObject()
		for _, key := range keys {
			obj = obj.Set(key.String(), From(rv.MapIndex(key).Interface()))
		}
		return ObjectOf(obj)
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		fallthrough
	case reflect.Array:
		values := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			values[i] = From(rv.Index(i).Interface())
		}
		return ListOf(values...)
	default:
		return Scalar(rv.Interface())
	}
}

func fromYAML(node *yaml.Node) Value {
	if node == nil {
		return Null()
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null()
		}
		return fromYAML(node.Content[0])
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			obj = obj.Set(node.Content[i].Value, fromYAML(node.Content[i+1]))
		}
		return ObjectOf(obj)
	case yaml.SequenceNode:
		values := make([]Value, len(node.Content))
		for i, item := range node.Content {
			values[i] = fromYAML(item)
		}
		return ListOf(values...)
	case yaml.AliasNode:
		return fromYAML(node.Alias)
	case yaml.ScalarNode:
		var scalar any
		if err := node.Decode(&scalar); err != nil {
			return Scalar(node.Value)
		}
		return Scalar(scalar)
	default:
		return Null()
	}
}

// Export returns a fully realised plain Go value: map[string]any for objects,
// []any for lists and the scalar payload otherwise. The absent sentinel
// exports as nil. Nothing in the result is shared with v.
func (v Value) Export() any {
	switch v.kind {
	case KindScalar:
		return detachScalar(v.scalar)
	case KindObject:
		out := make(map[string]any, v.object.Len())
		v.object.Range(func(key string, value Value) bool {
			out[key] = value.Export()
			return true
		})
		return out
	case KindList:
		out := make([]any, 0, v.list.Len())
		itr := v.list.Iterator()
		for !itr.Done() {
			_, value := itr.Next()
			out = append(out, value.Export())
		}
		return out
	default:
		return nil
	}
}

// ExportOrdered is like Export but renders objects as Pairs, so that
// From(v.ExportOrdered()) rebuilds v with the same key order.
func (v Value) ExportOrdered() any {
	switch v.kind {
	case KindObject:
		out := make(Pairs, 0, v.object.Len())
		v.object.Range(func(key string, value Value) bool {
			out = append(out, Pair{Key: key, Value: value.ExportOrdered()})
			return true
		})
		return out
	case KindList:
		out := make([]any, 0, v.list.Len())
		itr := v.list.Iterator()
		for !itr.Done() {
			_, value := itr.Next()
			out = append(out, value.ExportOrdered())
		}
		return out
	default:
		return v.Export()
	}
}

// GoString implements fmt.GoStringer for %#v in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("tree.Value{%s: %#v}", v.kind, v.Export())
}
