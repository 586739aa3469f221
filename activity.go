package statestore

import (
	"context"

	"github.com/goliatone/go-statestore/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified after every committed
// mutation. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CompactHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *storeConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityIdentity sets the actor, user and tenant copied onto every
// emitted event.
func WithActivityIdentity(identity activity.Identity) Option {
	return func(cfg *storeConfig) {
		cfg.identity = identity
	}
}

// ActivityHooks returns a copy of the hooks configured on the store.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return activity.CompactHooks(s.cfg.activityHooks)
}

func newEmitter(cfg storeConfig) *activity.Emitter {
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: true,
		Channel: cfg.activityChannel,
	})
}

// notify emits the event for a committed mutation. newValue is only computed
// when an emitter is listening.
func (s *Store) notify(op, path string, newValue func() any) error {
	if !s.emitter.Enabled() {
		return nil
	}
	input := activity.StateEventInput{
		Identity:   s.cfg.identity,
		StoreID:    s.cfg.storeID,
		Op:         op,
		Path:       path,
		Channel:    s.emitter.Channel(),
		OccurredAt: s.cfg.now(),
	}
	if newValue != nil {
		input.NewValue = newValue()
	}
	return s.emitter.Emit(context.Background(), activity.BuildStateEvent(input))
}
