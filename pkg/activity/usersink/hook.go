package usersink

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-morphon/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards configuration events to a go-users ActivitySink.
//
// Actor, user and tenant IDs that are not UUIDs are kept in the record data
// under "actor", "user" and "tenant" so nothing is lost when the caller uses
// plain usernames.
type Hook struct {
	Sink usertypes.ActivitySink
}

var _ activity.ActivityHook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := maps.Clone(normalized.Metadata)
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID, "actor", &data),
		UserID:     parseUUID(normalized.UserID, "user", &data),
		TenantID:   parseUUID(normalized.TenantID, "tenant", &data),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

func parseUUID(input, label string, data *map[string]any) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err == nil {
		return id
	}
	if *data == nil {
		*data = map[string]any{}
	}
	(*data)[label] = value
	return uuid.Nil
}
