package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event describes one lifecycle step of a storage namespace. The object of
// every event is the namespace itself, see ObjectTypeNamespace.
type Event struct {
	Verb       string
	Namespace  string
	Version    string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives namespace events.
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

// Notify stamps the event and forwards it to every hook in order. Events
// without a verb or namespace are dropped. Every hook runs even when an
// earlier one fails; failures are joined and name the verb and namespace.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = stamp(event)
	if event.Verb == "" || event.Namespace == "" {
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
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d on %s for namespace %q: %w", i, event.Verb, event.Namespace, err))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a copy of h without nil entries, or nil when nothing is left.
func (h Hooks) Clone() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// stamp trims identifiers, defaults the channel and OccurredAt, and gives the
// event its own metadata map so hooks cannot alter each other's view.
func stamp(event Event) Event {
	event.Verb = strings.TrimSpace(event.Verb)
	event.Namespace = strings.TrimSpace(event.Namespace)
	event.Version = strings.TrimSpace(event.Version)
	event.Channel = strings.TrimSpace(event.Channel)
	if event.Channel == "" {
		event.Channel = DefaultChannel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if len(event.Metadata) > 0 {
		metadata := make(map[string]any, len(event.Metadata))
		for key, value := range event.Metadata {
			metadata[key] = value
		}
		event.Metadata = metadata
	} else {
		event.Metadata = nil
	}
	return event
}
