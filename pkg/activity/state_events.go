package activity

import (
	"strings"
	"time"
)

// ObjectTypeState is the object type carried by every state event.
const ObjectTypeState = "state"

// Metadata keys set by BuildStateEvent.
const (
	MetaOp       = "op"
	MetaPath     = "path"
	MetaNewValue = "new_value"
)

// Identity names who drives a store. It is copied onto every event.
type Identity struct {
	ActorID  string
	UserID   string
	TenantID string
}

// StateEventInput describes one committed mutation.
type StateEventInput struct {
	Identity
	StoreID    string
	Op         string
	Path       string
	NewValue   any
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// VerbFor returns the event verb for a store operation, e.g. "state.set".
func VerbFor(op string) string {
	return ObjectTypeState + "." + strings.TrimSpace(op)
}

// BuildStateEvent constructs the activity event for a committed mutation.
// The store ID is the object ID; the path and new value travel as metadata.
func BuildStateEvent(input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Op != "" {
		metadata = ensureMetadata(metadata)
		metadata[MetaOp] = input.Op
	}
	if input.Path != "" {
		metadata = ensureMetadata(metadata)
		metadata[MetaPath] = input.Path
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata[MetaNewValue] = input.NewValue
	}

	objectID := strings.TrimSpace(input.StoreID)
	if objectID == "" {
		objectID = ObjectTypeState
	}

	return Event{
		Verb:       VerbFor(input.Op),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeState,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
