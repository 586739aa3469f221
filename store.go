package statestore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-statestore/pkg/activity"
	"github.com/goliatone/go-statestore/tree"
)

// Store holds one persistent nested value. Every mutator builds a new root
// from the current one and swaps it in under a write lock, so readers always
// observe a complete value and concurrent mutations never interleave.
type Store struct {
	mu      sync.RWMutex
	root    tree.Value
	initial tree.Value
	// version counts commits; detached updates compare it before swapping.
	version uint64

	cfg     storeConfig
	emitter *activity.Emitter

	evalOnce  sync.Once
	evaluator Evaluator
}

const maxDetachedAttempts = 64

var (
	_ Accessors = (*Store)(nil)
	_ Mutators  = (*Store)(nil)
)

// New converts initial with tree.From and wraps it in a Store. The converted
// value is also captured as the target of Reset. A nil initial value starts
// the store with an empty object.
func New(initial any, opts ...Option) *Store {
	cfg := applyOptions(opts)
	if strings.TrimSpace(cfg.storeID) == "" {
		cfg.storeID = uuid.NewString()
	}

	root := tree.From(initial)
	if root.IsAbsent() || root.IsNull() {
		root = tree.EmptyObject()
	}

	return &Store{
		root:    root,
		initial: root,
		cfg:     cfg,
		emitter: newEmitter(cfg),
	}
}

// NewModel returns a Binder that creates a fresh Store from initial each time
// it is called, registers its hooks on the controller and returns its
// facades.
func NewModel(initial any, opts ...Option) Binder {
	return func(c Controller) Model {
		return New(initial, opts...).Bind(c)
	}
}

// ID returns the identifier stamped on the store's activity events.
func (s *Store) ID() string {
	return s.cfg.storeID
}

// Snapshot returns the current root. The value is persistent, so callers may
// hold on to it while the store keeps changing.
func (s *Store) Snapshot() tree.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Initial returns the value Reset restores.
func (s *Store) Initial() tree.Value {
	return s.initial
}

// mutate runs fn against the current root under the write lock and commits
// its result. fn must not call back into the store. On error the root is left
// untouched. Hooks and loggers run after the lock is released.
func (s *Store) mutate(op string, path tree.Path, fn func(root tree.Value) (tree.Value, error)) error {
	start := time.Now()
	next, err := s.swap(fn)
	return s.committed(op, path, start, next, err)
}

// mutateDetached runs fn outside the lock against a snapshot and commits only
// if no other mutation landed meanwhile, retrying otherwise. fn may read the
// store and may run more than once.
func (s *Store) mutateDetached(op string, path tree.Path, fn func(root tree.Value) (tree.Value, error)) error {
	start := time.Now()
	next, err := s.swapDetached(fn)
	return s.committed(op, path, start, next, err)
}

func (s *Store) swap(fn func(root tree.Value) (tree.Value, error)) (tree.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.root)
	if err != nil {
		return tree.Absent(), err
	}
	s.root = next
	s.version++
	return next, nil
}

func (s *Store) swapDetached(fn func(root tree.Value) (tree.Value, error)) (tree.Value, error) {
	for attempt := 0; attempt < maxDetachedAttempts; attempt++ {
		s.mu.RLock()
		root, version := s.root, s.version
		s.mu.RUnlock()

		next, err := fn(root)
		if err != nil {
			return tree.Absent(), err
		}

		s.mu.Lock()
		if s.version == version {
			s.root = next
			s.version++
			s.mu.Unlock()
			return next, nil
		}
		s.mu.Unlock()
	}
	return tree.Absent(), fmt.Errorf("%w after %d attempts", ErrConflict, maxDetachedAttempts)
}

func (s *Store) committed(op string, path tree.Path, start time.Time, next tree.Value, err error) error {
	err = wrapOpError(op, path, err)
	label := pathLabel(path)

	var notifyErr error
	if err == nil {
		notifyErr = s.notify(op, label, func() any {
			return tree.GetIn(next, path).Export()
		})
	}

	s.logger().LogMutation(MutationLogEvent{
		StoreID:   s.cfg.storeID,
		Op:        op,
		Path:      label,
		Duration:  time.Since(start),
		Err:       err,
		NotifyErr: notifyErr,
	})
	return err
}

// pathLabel renders path for events and logs; the root renders empty.
func pathLabel(path tree.Path) string {
	if len(path) == 0 {
		return ""
	}
	return path.String()
}
