// Package usersink forwards storage activity events to a go-users
// ActivitySink so namespace resets and writes land in the same audit trail as
// the rest of a user's activity.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-persist/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts namespace events to a go-users ActivitySink. Storage events
// carry no identity of their own, so every record is attributed to Actor,
// typically the user or service account that owns the manager, and scoped to
// Tenant when set.
type Hook struct {
	Sink   usertypes.ActivitySink
	Actor  uuid.UUID
	Tenant uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	namespace := strings.TrimSpace(event.Namespace)
	if event.Verb == "" || namespace == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    h.Actor,
		UserID:     h.Actor,
		TenantID:   h.Tenant,
		Verb:       event.Verb,
		ObjectType: activity.ObjectTypeNamespace,
		ObjectID:   namespace,
		Channel:    event.Channel,
		Data:       recordData(namespace, event),
		OccurredAt: event.OccurredAt,
	})
}

func recordData(namespace string, event activity.Event) map[string]any {
	data := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		data[key] = value
	}
	data["namespace"] = namespace
	if event.Version != "" {
		data["version"] = event.Version
	}
	return data
}
