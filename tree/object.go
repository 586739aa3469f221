package tree

import "github.com/benbjohnson/immutable"

// Object is a persistent mapping from string keys to Values that remembers the
// order in which keys were first inserted. Updating an existing key keeps its
// position. The zero Object is an empty object.
type Object struct {
	entries *immutable.Map[string, Value]
	keys    *immutable.List[string]
}

// NewObject returns an empty object.
func NewObject() Object {
	return Object{
		entries: immutable.NewMap[string, Value](nil),
		keys:    immutable.NewList[string](),
	}
}

func (o Object) ensure() Object {
	if o.entries == nil || o.keys == nil {
		return NewObject()
	}
	return o
}

// Len returns the number of keys.
func (o Object) Len() int {
	if o.entries == nil {
		return 0
	}
	return o.entries.Len()
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	if o.entries == nil {
		return Absent(), false
	}
	return o.entries.Get(key)
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set returns an object with key bound to value. Setting the absent sentinel
// deletes the key.
func (o Object) Set(key string, value Value) Object {
	if value.IsAbsent() {
		return o.Delete(key)
	}
	o = o.ensure()
	_, exists := o.entries.Get(key)
	next := Object{entries: o.entries.Set(key, value), keys: o.keys}
	if !exists {
		next.keys = o.keys.Append(key)
	}
	return next
}

// Delete returns an object without key. Deleting a missing key returns o.
func (o Object) Delete(key string) Object {
	if !o.Has(key) {
		return o
	}
	idx := -1
	for i := 0; i < o.keys.Len(); i++ {
		if o.keys.Get(i) == key {
			idx = i
			break
		}
	}
	keys := o.keys
	if idx >= 0 {
		keys = spliceList(o.keys, idx, 1)
	}
	return Object{entries: o.entries.Delete(key), keys: keys}
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	if o.keys == nil {
		return []string{}
	}
	return listSlice(o.keys)
}

// Range calls fn for each entry in key order until fn returns false.
func (o Object) Range(fn func(key string, value Value) bool) {
	if o.keys == nil {
		return
	}
	itr := o.keys.Iterator()
	for !itr.Done() {
		_, key := itr.Next()
		value, _ := o.entries.Get(key)
		if !fn(key, value) {
			return
		}
	}
}
