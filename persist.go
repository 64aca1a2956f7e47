package persist

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-persist/internal/reactive"
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/google/uuid"
)

// onChange runs for every write that altered the cache. Callers hold mu.
func (m *Manager) onChange(change reactive.Change) {
	m.logLater(LogEvent{Op: OpChange, Key: strings.Join(change.Path, ".")})
	m.markDirty()
}

// markDirty records a pending write and restarts the debounce window.
// Callers hold mu.
func (m *Manager) markDirty() {
	m.dirty = true
	if m.closed {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.cfg.debounce, m.flushFromTimer)
		return
	}
	m.timer.Reset(m.cfg.debounce)
}

func (m *Manager) flushFromTimer() {
	if err := m.flush(context.Background()); err != nil {
		m.reportFlushError(err)
	}
}

type flushResult struct {
	keys    []string
	bytes   int
	elapsed time.Duration
}

// flush writes the cache as it is now when a change is pending, then logs
// and emits with no lock held. A failed write leaves the change pending for
// the next Flush or Close; it is not retried on its own.
func (m *Manager) flush(ctx context.Context) error {
	result, err := m.writePending(ctx)
	if result == nil {
		return err
	}
	m.log(LogEvent{Op: OpFlush, Duration: result.elapsed, Err: err})
	if err != nil {
		return err
	}
	m.emit(activity.BuildNamespacePersistedEvent(m.namespaceEvent(activity.NamespaceEventInput{
		Keys:    result.keys,
		Bytes:   result.bytes,
		FlushID: uuid.NewString(),
	})))
	return nil
}

// writePending serializes backend writes under writeMu. It returns a nil
// result when no write was attempted.
func (m *Manager) writePending(ctx context.Context) (*flushResult, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if !m.dirty {
		m.unlock()
		return nil, nil
	}
	payload, err := m.encode(m.cache)
	result := &flushResult{keys: m.root.Keys()}
	m.dirty = false
	m.unlock()

	start := time.Now()
	if err == nil {
		if setErr := m.backend.Set(m.cfg.namespace, string(payload)); setErr != nil {
			err = &WriteError{Namespace: m.cfg.namespace, Err: setErr}
		}
	}
	result.elapsed = time.Since(start)
	if err != nil {
		m.mu.Lock()
		m.dirty = true
		m.unlock()
		return result, err
	}
	result.bytes = len(payload)
	return result, nil
}

func (m *Manager) reportFlushError(err error) {
	if m.cfg.onFlushError != nil {
		m.cfg.onFlushError(err)
	}
}

// Flush writes a pending change now instead of waiting for the debounce
// window, and returns the write error if any.
func (m *Manager) Flush(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	if m.closed {
		m.unlock()
		return ErrClosed
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.unlock()
	return m.flush(ctx)
}

// Close stops the debounce timer, writes a pending change and closes the
// backend when it implements io.Closer. Accessors fail with ErrClosed
// afterwards. Closing twice is a no-op.
func (m *Manager) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	if m.closed {
		m.unlock()
		return nil
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.unlock()

	err := m.flush(ctx)
	if closer, ok := m.backend.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}
