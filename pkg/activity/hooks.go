package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event describes a committed state change that can be fanned out to hooks.
// IDs are strings so call sites are not tied to a UUID type.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to every hook and joins their errors. Events
// missing a verb, object type or object ID are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ForVerbs wraps hook so it only receives events with one of verbs.
func ForVerbs(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := make(map[string]struct{}, len(verbs))
	for _, verb := range verbs {
		allowed[strings.TrimSpace(verb)] = struct{}{}
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if _, ok := allowed[event.Verb]; !ok || hook == nil {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// UnderPath wraps hook so it only receives events that can change the value
// at prefix: mutations at prefix, below it, above it, or at the root.
// Prefixes use the rendering of tree.Path, e.g. "todos[0].done".
func UnderPath(hook ActivityHook, prefix string) ActivityHook {
	prefix = strings.TrimSpace(prefix)
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil {
			return nil
		}
		path, _ := event.Metadata[MetaPath].(string)
		if !pathsOverlap(path, prefix) {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

func pathsOverlap(path, prefix string) bool {
	return path == "" || prefix == "" || within(path, prefix) || within(prefix, path)
}

func within(path, ancestor string) bool {
	if !strings.HasPrefix(path, ancestor) {
		return false
	}
	rest := path[len(ancestor):]
	return rest == "" || rest[0] == '.' || rest[0] == '['
}

// NormalizeEvent trims identifiers, detaches metadata and stamps OccurredAt
// when it is missing.
func NormalizeEvent(event Event) Event {
	normalized := Event{
		Verb:       strings.TrimSpace(event.Verb),
		ActorID:    strings.TrimSpace(event.ActorID),
		UserID:     strings.TrimSpace(event.UserID),
		TenantID:   strings.TrimSpace(event.TenantID),
		ObjectType: strings.TrimSpace(event.ObjectType),
		ObjectID:   strings.TrimSpace(event.ObjectID),
		Channel:    strings.TrimSpace(event.Channel),
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: event.OccurredAt,
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func (e Event) routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
