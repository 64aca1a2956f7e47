package activity

import (
	"strings"
	"time"
)

const (
	// ObjectTypeNamespace is the object type sinks record for every event.
	ObjectTypeNamespace = "storage.namespace"
	// DefaultChannel is applied to events emitted without a channel.
	DefaultChannel = "storage"
)

const (
	VerbNamespaceReset     = "storage.namespace.reset"
	VerbNamespaceHydrated  = "storage.namespace.hydrated"
	VerbNamespacePersisted = "storage.namespace.persisted"
)

// NamespaceEventInput carries the fields shared by namespace lifecycle events.
type NamespaceEventInput struct {
	Namespace string
	Version   string
	Channel   string

	// StoredVersion is the version found in the backend before a reset; empty
	// when no readable record existed.
	StoredVersion string
	Reason        string
	Keys          []string
	Bytes         int
	FlushID       string

	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildNamespaceResetEvent describes a namespace overwritten with defaults.
func BuildNamespaceResetEvent(input NamespaceEventInput) Event {
	return buildNamespaceEvent(VerbNamespaceReset, input)
}

// BuildNamespaceHydratedEvent describes the cache being filled from the backend.
func BuildNamespaceHydratedEvent(input NamespaceEventInput) Event {
	return buildNamespaceEvent(VerbNamespaceHydrated, input)
}

// BuildNamespacePersistedEvent describes a debounced or explicit write.
func BuildNamespacePersistedEvent(input NamespaceEventInput) Event {
	return buildNamespaceEvent(VerbNamespacePersisted, input)
}

func buildNamespaceEvent(verb string, input NamespaceEventInput) Event {
	var metadata map[string]any
	set := func(key string, value any) {
		if metadata == nil {
			metadata = make(map[string]any, len(input.Metadata)+4)
		}
		metadata[key] = value
	}
	for key, value := range input.Metadata {
		set(key, value)
	}
	if v := strings.TrimSpace(input.StoredVersion); v != "" {
		set("stored_version", v)
	}
	if v := strings.TrimSpace(input.Reason); v != "" {
		set("reason", v)
	}
	if len(input.Keys) > 0 {
		set("keys", append([]string{}, input.Keys...))
	}
	if input.Bytes > 0 {
		set("bytes", input.Bytes)
	}
	if v := strings.TrimSpace(input.FlushID); v != "" {
		set("flush_id", v)
	}

	return Event{
		Verb:       verb,
		Namespace:  strings.TrimSpace(input.Namespace),
		Version:    strings.TrimSpace(input.Version),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
