package statestore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-statestore/tree"
)

// Function is a helper callable from query expressions. Arguments arrive as
// plain Go values exported by the engine.
type Function func(args ...any) (any, error)

// Variadic marks a registration that accepts any number of arguments.
const Variadic = -1

type registeredFunction struct {
	arity int
	fn    Function
}

// FunctionRegistry holds query helpers keyed by lowercase name. expr and JS
// expose every helper as a global; CEL declares fixed-arity helpers as
// functions. All engines also bind call(name, args).
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register adds a variadic helper.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.RegisterArity(name, Variadic, fn)
}

// RegisterArity adds a helper that must be called with exactly arity
// arguments; Call rejects other counts with ErrInvalidArgument. Names are
// case-insensitive, must not shadow a query binding and may be registered
// once.
func (r *FunctionRegistry) RegisterArity(name string, arity int, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case fn == nil:
		return fmt.Errorf("statestore: function %q is nil", name)
	case key == "":
		return fmt.Errorf("statestore: function name must not be empty")
	case reservedBinding(key):
		return fmt.Errorf("statestore: function name %q is reserved", name)
	case arity < Variadic:
		return fmt.Errorf("statestore: function %q has invalid arity %d", name, arity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("statestore: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{arity: arity, fn: fn}
	return nil
}

// Clone returns a copy that can be extended without touching r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for name, entry := range r.functions {
		clone.functions[name] = entry
	}
	return clone
}

// Call runs the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("statestore: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("statestore: function %q not registered", name)
	}
	if entry.arity != Variadic && len(args) != entry.arity {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArgument, name, entry.arity, len(args))
	}
	return entry.fn(args...)
}

func (r *FunctionRegistry) arity(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.functions[strings.ToLower(name)]
	if !ok {
		return Variadic
	}
	return entry.arity
}

// Names returns registered names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinFunctions returns helpers that apply the store's own value rules
// inside any engine:
//
//	has_value(list, v)   list holds an element structurally equal to v
//	where(item, pred)    item satisfies pred under FindWhere matching
//	pluck(value, "a.0")  value at a dotted path, nil when unresolved
//
// Equality is tree.Equal, so 1 and 1.0 match regardless of how an engine
// represents numbers.
func BuiltinFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.RegisterArity("has_value", 2, func(args ...any) (any, error) {
		list := tree.From(args[0])
		if !list.IsList() {
			return false, nil
		}
		want := tree.From(args[1])
		for _, element := range list.Values() {
			if tree.Equal(element, want) {
				return true, nil
			}
		}
		return false, nil
	})
	_ = r.RegisterArity("where", 2, func(args ...any) (any, error) {
		predicate, ok := tree.From(args[1]).Object()
		if !ok {
			return nil, fmt.Errorf("%w: where predicate must be an object", ErrInvalidArgument)
		}
		wanted := make(map[string]tree.Value, predicate.Len())
		predicate.Range(func(key string, value tree.Value) bool {
			wanted[key] = value
			return true
		})
		return matchCount(tree.From(args[0]), wanted) == len(wanted), nil
	})
	_ = r.RegisterArity("pluck", 2, func(args ...any) (any, error) {
		dotted, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: pluck path must be a string", ErrInvalidArgument)
		}
		return tree.GetIn(tree.From(args[0]), tree.ParsePath(dotted)).Export(), nil
	})
	return r
}

// WithFunctionRegistry exposes the helpers in registry to the default
// evaluator. The registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithBuiltinFunctions adds BuiltinFunctions to the default evaluator,
// keeping helpers already configured under the same names.
func WithBuiltinFunctions() Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		builtins := BuiltinFunctions()
		for _, name := range builtins.Names() {
			entry := builtins.functions[name]
			_ = cfg.functions.RegisterArity(name, entry.arity, entry.fn)
		}
	}
}

// WithCustomFunction registers fn under name for the default evaluator.
// Invalid or duplicate registrations are ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
