// Package usersink forwards state activity to a go-users ActivitySink so store
// mutations land in the same audit trail as user actions.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-statestore/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Now stamps records whose event carries no timestamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identifiers that are not UUIDs map to uuid.Nil.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return h.Sink.Log(ctx, h.record(event, normalized))
}

func (h Hook) record(raw, normalized activity.Event) usertypes.ActivityRecord {
	occurredAt := raw.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = h.now()
	}
	return usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       recordData(normalized.Metadata),
		OccurredAt: occurredAt,
	}
}

func (h Hook) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// recordData copies metadata, dropping new_value payloads that are not
// scalars so large subtrees do not end up in the audit log.
func recordData(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	data := make(map[string]any, len(meta))
	for key, value := range meta {
		if key == activity.MetaNewValue {
			switch value.(type) {
			case map[string]any, []any:
				data["new_value_kind"] = kindOf(value)
				continue
			}
		}
		data[key] = value
	}
	return data
}

func kindOf(value any) string {
	if _, ok := value.([]any); ok {
		return "list"
	}
	return "object"
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
