package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/google/go-cmp/cmp"
)

func TestActivityLifecycleEvents(t *testing.T) {
	hook := &activity.CaptureHook{}
	m, err := New(newRecordingBackend(), scenarioDefaults(),
		WithNamespace(testNamespace),
		WithVersion("1.2.0"),
		WithLazy(false),
		WithDebounce(time.Hour),
		WithActivityHooks(activity.Hooks{hook}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Set("token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	want := []string{
		activity.VerbNamespaceReset,
		activity.VerbNamespaceHydrated,
		activity.VerbNamespacePersisted,
	}
	if diff := cmp.Diff(want, hook.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}

	events := hook.Snapshot()
	for _, event := range events {
		if event.Namespace != testNamespace {
			t.Fatalf("unexpected namespace on %s: %q", event.Verb, event.Namespace)
		}
		if event.Channel != activity.DefaultChannel {
			t.Fatalf("expected default channel, got %q", event.Channel)
		}
		if event.Version != "1.2.0" {
			t.Fatalf("expected version on %s, got %q", event.Verb, event.Version)
		}
	}
	if events[0].Metadata["reason"] != "missing" {
		t.Fatalf("expected reset reason missing, got %#v", events[0].Metadata)
	}
	persisted := events[2].Metadata
	if id, _ := persisted["flush_id"].(string); id == "" {
		t.Fatalf("expected flush id, got %#v", persisted)
	}
	if size, _ := persisted["bytes"].(int); size <= 0 {
		t.Fatalf("expected byte count, got %#v", persisted)
	}
	if diff := cmp.Diff([]string{"flags", "token"}, persisted["keys"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityResetCarriesStoredVersion(t *testing.T) {
	b := newRecordingBackend()
	b.seedRecord(t, testNamespace, "1.0.0", map[string]any{})
	hook := &activity.CaptureHook{}

	if _, err := New(b, scenarioDefaults(),
		WithNamespace(testNamespace),
		WithVersion("2.0.0"),
		WithActivityHooks(activity.Hooks{hook}),
		WithActivityChannel("preferences"),
	); err != nil {
		t.Fatalf("new: %v", err)
	}

	events := hook.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected only the reset event for a lazy manager, got %v", hook.Verbs())
	}
	event := events[0]
	if event.Metadata["stored_version"] != "1.0.0" || event.Metadata["reason"] != "outdated" {
		t.Fatalf("unexpected reset metadata %#v", event.Metadata)
	}
	if event.Channel != "preferences" {
		t.Fatalf("expected custom channel, got %q", event.Channel)
	}
}

func TestActivityHookErrorsAreLogged(t *testing.T) {
	hook := &activity.CaptureHook{Err: errors.New("sink offline")}
	logger := &captureLogger{}

	m, err := New(newRecordingBackend(), scenarioDefaults(),
		WithActivityHooks(activity.Hooks{hook}),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("hook failures must not fail New: %v", err)
	}
	if _, err := m.Get("token"); err != nil {
		t.Fatalf("hook failures must not fail accessors: %v", err)
	}

	event, ok := logger.find(OpActivity)
	if !ok {
		t.Fatalf("expected activity failure to be logged, got %v", logger.ops())
	}
	if event.Key != activity.VerbNamespaceReset || event.Err == nil {
		t.Fatalf("unexpected activity log event %+v", event)
	}
}

// runWithin fails the test when fn does not return in time, which is how a
// callback that re-enters a held lock shows up.
func runWithin(t *testing.T, limit time.Duration, fn func() error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(limit):
		t.Fatalf("manager call blocked for %s", limit)
	}
}

func TestActivityHooksMayCallBackIntoManager(t *testing.T) {
	var m *Manager
	var hydratedToken any
	var persistedLoaded bool
	hook := activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		if m == nil {
			return nil
		}
		switch event.Verb {
		case activity.VerbNamespaceHydrated:
			snapshot, err := m.Snapshot()
			if err != nil {
				return err
			}
			hydratedToken = snapshot["token"]
		case activity.VerbNamespaceReset:
			_, err := m.Lookup("flags.a")
			return err
		case activity.VerbNamespacePersisted:
			persistedLoaded = m.Loaded()
			return m.Flush(ctx)
		}
		return nil
	})

	var err error
	m, err = New(newRecordingBackend(), scenarioDefaults(),
		WithDebounce(time.Hour),
		WithActivityHooks(activity.Hooks{hook}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	runWithin(t, 2*time.Second, func() error {
		if _, err := m.Get("token"); err != nil {
			return err
		}
		if err := m.Reset(); err != nil {
			return err
		}
		if err := m.Set("token", "abc"); err != nil {
			return err
		}
		return m.Flush(context.Background())
	})

	if hydratedToken != "" {
		t.Fatalf("expected hook to read the hydrated cache, got %#v", hydratedToken)
	}
	if !persistedLoaded {
		t.Fatalf("expected persisted hook to observe a loaded manager")
	}
}
