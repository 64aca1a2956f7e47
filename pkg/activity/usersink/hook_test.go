package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsNamespaceEvent(t *testing.T) {
	sink := &recordingSink{}
	actor := uuid.New()
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, Actor: actor, Tenant: tenant}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := activity.BuildNamespaceResetEvent(activity.NamespaceEventInput{
		Namespace:     "STORAGE_MANAGER",
		Version:       "1.1.0",
		Channel:       "storage",
		StoredVersion: "1.0.0",
		OccurredAt:    now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actor || record.UserID != actor || record.TenantID != tenant {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Verb != activity.VerbNamespaceReset || record.ObjectType != activity.ObjectTypeNamespace || record.ObjectID != "STORAGE_MANAGER" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "storage" {
		t.Fatalf("expected channel storage got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	want := map[string]any{"namespace": "STORAGE_MANAGER", "version": "1.1.0", "stored_version": "1.0.0"}
	for key, value := range want {
		if record.Data[key] != value {
			t.Fatalf("expected data %s=%v, got %+v", key, value, record.Data)
		}
	}
}

func TestHookThroughHooksGetsStampedEvent(t *testing.T) {
	sink := &recordingSink{}
	hooks := activity.Hooks{usersink.Hook{Sink: sink}}

	if err := hooks.Notify(context.Background(), activity.Event{Verb: activity.VerbNamespacePersisted, Namespace: "ns"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() || sink.records[0].Channel != activity.DefaultChannel {
		t.Fatalf("expected stamped record, got %+v", sink.records[0])
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{Verb: activity.VerbNamespaceReset, Namespace: " "})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records without a namespace, got %d", len(sink.records))
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}

	err := hook.Notify(context.Background(), activity.Event{Verb: "v", Namespace: "ns"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "v", Namespace: "ns"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
