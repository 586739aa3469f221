package statestore

import (
	"time"

	"github.com/goliatone/go-statestore/pkg/activity"
	"github.com/goliatone/go-statestore/tree"
)

// Accessors is the read facade handed to a controller.
type Accessors interface {
	Get(path tree.Path) tree.Value
	Has(path tree.Path) bool
	Export() any
	Keys(path tree.Path) ([]string, error)
	FindWhere(path tree.Path, predicate map[string]any) (tree.Value, error)
	Find(query Query) (tree.Value, error)
	Filter(query Query) (tree.Value, error)
}

// Mutators is the write facade handed to a controller. Every method either
// commits a new root or returns an error and leaves the root untouched.
type Mutators interface {
	Import(value any) error
	Set(path tree.Path, value any) error
	Unset(path tree.Path, keys ...string) error
	Push(path tree.Path, value any) error
	Splice(path tree.Path, start, deleteCount int, items ...any) error
	Merge(path tree.Path, value any) error
	Concat(path tree.Path, values ...any) error
	Pop(path tree.Path) error
	Shift(path tree.Path) error
	Unshift(path tree.Path, values ...any) error
	Update(path tree.Path, fn tree.UpdateFunc) error
}

// Model pairs the facades returned when a store is bound to a controller.
type Model struct {
	Accessors Accessors
	Mutators  Mutators
}

// Binder registers a fresh store's hooks on a controller and returns its
// facades.
type Binder func(Controller) Model

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	storeID         string
	logger          MutationLogger
	evaluator       Evaluator
	evaluatorLogger EvaluatorLogger
	programCache    ProgramCache
	functions       *FunctionRegistry
	activityHooks   activity.Hooks
	activityChannel string
	identity        activity.Identity
	clock           func() time.Time
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithStoreID names the store in activity events. Defaults to a random UUID.
func WithStoreID(id string) Option {
	return func(cfg *storeConfig) {
		cfg.storeID = id
	}
}

// WithClock overrides the time source used to stamp activity events.
func WithClock(clock func() time.Time) Option {
	return func(cfg *storeConfig) {
		cfg.clock = clock
	}
}

// WithEvaluator configures the expression evaluator used by Find and Filter.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

func (cfg storeConfig) now() time.Time {
	if cfg.clock != nil {
		return cfg.clock()
	}
	return time.Now()
}
