package persist

import (
	"context"

	"github.com/goliatone/go-persist/pkg/activity"
)

func (m *Manager) namespaceEvent(input activity.NamespaceEventInput) activity.NamespaceEventInput {
	input.Namespace = m.cfg.namespace
	input.Version = m.cfg.version
	if input.Channel == "" {
		input.Channel = m.cfg.channel
	}
	return input
}

// emit notifies activity hooks. Hook failures are logged and dropped. Callers
// must not hold mu; use emitLater instead.
func (m *Manager) emit(event activity.Event) {
	if len(m.cfg.hooks) == 0 {
		return
	}
	if err := m.cfg.hooks.Notify(context.Background(), event); err != nil {
		m.log(LogEvent{Op: OpActivity, Key: event.Verb, Err: err})
	}
}

// later queues fn until mu is released by unlock. Callers hold mu.
func (m *Manager) later(fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *Manager) logLater(event LogEvent) {
	m.later(func() { m.log(event) })
}

func (m *Manager) emitLater(event activity.Event) {
	m.later(func() { m.emit(event) })
}

// unlock releases mu and then runs the callbacks queued while it was held,
// so loggers and hooks may call back into the Manager.
func (m *Manager) unlock() {
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}
