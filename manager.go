package persist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-persist/internal/reactive"
	"github.com/goliatone/go-persist/layering"
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/backend"
	"github.com/hashicorp/go-version"
)

// Manager binds one namespace of a backend to an in-memory cache built from
// the caller's defaults and the persisted record. It is safe for concurrent
// use. Loggers and activity hooks run after the manager releases its locks
// and may call back into it.
type Manager struct {
	backend  backend.Backend
	defaults map[string]any
	cfg      config
	version  *version.Version

	// mu guards the cache, the observer, the debounce timer and pending.
	mu     sync.Mutex
	cache  map[string]any
	root   *reactive.Object
	loaded bool
	dirty  bool
	closed bool
	timer  *time.Timer
	// pending holds log and activity callbacks deferred until mu is released.
	pending []func()

	// writeMu keeps backend writes ordered. It is taken before mu.
	writeMu sync.Mutex
}

// New validates defaults, runs the version check against the record stored
// under the namespace and, unless the manager is lazy, fills the cache.
//
// Defaults that do not describe a JSON object fail with *InvalidStoreError
// before the backend is touched. A missing, unreadable or older record is
// overwritten with defaults; a failure to write it is returned as
// *WriteError.
func New(store backend.Backend, defaults any, opts ...Option) (*Manager, error) {
	tree, err := normalizeDefaults(defaults)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNoBackend
	}

	cfg := applyOptions(opts)
	configured, err := parseVersion(cfg.version)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		backend:  store,
		defaults: tree,
		cfg:      cfg,
		version:  configured,
	}
	if err := m.checkStore(); err != nil {
		return nil, err
	}
	if !cfg.lazy {
		m.mu.Lock()
		m.fillCache()
		m.unlock()
	}
	return m, nil
}

func (m *Manager) checkStore() error {
	start := time.Now()
	record := m.getItem(m.log)
	reason := resetReason(record, m.version)
	m.log(LogEvent{Op: OpCheck, Key: reason, Duration: time.Since(start)})
	if reason == "" {
		return nil
	}

	var stored string
	if record != nil {
		stored = record.Version
	}
	start = time.Now()
	size, err := m.setItem(m.defaults)
	m.log(LogEvent{Op: OpReset, Key: reason, Duration: time.Since(start), Err: err})
	if err != nil {
		return err
	}
	m.emit(activity.BuildNamespaceResetEvent(m.namespaceEvent(activity.NamespaceEventInput{
		StoredVersion: stored,
		Reason:        reason,
		Keys:          sortedKeys(m.defaults),
		Bytes:         size,
	})))
	return nil
}

// getItem returns the record stored under the namespace, or nil when it is
// absent, null or cannot be decoded. Read failures go to report, never to
// the caller.
func (m *Manager) getItem(report func(LogEvent)) *Record {
	raw, ok, err := m.backend.Get(m.cfg.namespace)
	if err != nil {
		report(LogEvent{Op: OpRead, Err: err})
		return nil
	}
	if !ok {
		return nil
	}
	var record *Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		report(LogEvent{Op: OpMalformed, Err: &MalformedRecordError{Namespace: m.cfg.namespace, Err: err}})
		return nil
	}
	return record
}

// setItem writes data as the whole namespace record and returns its size.
func (m *Manager) setItem(data map[string]any) (int, error) {
	payload, err := m.encode(data)
	if err != nil {
		return 0, err
	}
	if err := m.backend.Set(m.cfg.namespace, string(payload)); err != nil {
		return 0, &WriteError{Namespace: m.cfg.namespace, Err: err}
	}
	return len(payload), nil
}

func (m *Manager) encode(data map[string]any) ([]byte, error) {
	now := time.Now().UTC()
	payload, err := json.Marshal(Record{Version: m.cfg.version, Data: data, UpdatedAt: &now})
	if err != nil {
		return nil, &WriteError{Namespace: m.cfg.namespace, Err: err}
	}
	return payload, nil
}

// fillCache merges the persisted data over the defaults and starts observing
// the result. Callers hold mu.
func (m *Manager) fillCache() {
	start := time.Now()
	var persisted map[string]any
	if record := m.getItem(m.logLater); record != nil {
		persisted = record.Data
	}
	m.cache = layering.Merge(persisted, m.defaults)
	m.loaded = true
	m.root = reactive.Observe(m.cache, m.onChange)
	m.logLater(LogEvent{Op: OpHydrate, Duration: time.Since(start)})
	m.emitLater(activity.BuildNamespaceHydratedEvent(m.namespaceEvent(activity.NamespaceEventInput{
		Keys: m.root.Keys(),
	})))
}

// ready fails after Close and hydrates a lazy manager on first use. Callers
// hold mu.
func (m *Manager) ready() error {
	if m.closed {
		return ErrClosed
	}
	if !m.loaded {
		m.fillCache()
	}
	return nil
}

func (m *Manager) known(key string) error {
	if _, ok := m.defaults[key]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return nil
}

// Get returns a copy of the value stored under a top-level key.
func (m *Manager) Get(key string) (any, error) {
	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if err := m.known(key); err != nil {
		return nil, err
	}
	if err := m.ready(); err != nil {
		return nil, err
	}
	value, _ := m.root.Get(key)
	return layering.Clone(value), nil
}

// Set replaces the value of a top-level key. Setting a scalar to its current
// value does not schedule a write. Objects and arrays are copied, so they
// always count as a change.
func (m *Manager) Set(key string, value any) error {
	normalized, err := normalizeValue(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.known(key); err != nil {
		return err
	}
	if err := m.ready(); err != nil {
		return err
	}
	m.root.Set(key, normalized)
	return nil
}

// Lookup returns a copy of the value at a dot separated path such as
// "customColumns.campaignTable".
func (m *Manager) Lookup(path string) (any, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if err := m.known(segments[0]); err != nil {
		return nil, err
	}
	if err := m.ready(); err != nil {
		return nil, err
	}
	parent, err := m.parent(path, segments)
	if err != nil {
		return nil, err
	}
	value, ok := parent.Get(segments[len(segments)-1])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return layering.Clone(value), nil
}

// SetPath writes value at a dot separated path. Every segment but the last
// must address an existing object; the last may add a new key to it.
func (m *Manager) SetPath(path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	normalized, err := normalizeValue(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.known(segments[0]); err != nil {
		return err
	}
	if err := m.ready(); err != nil {
		return err
	}
	parent, err := m.parent(path, segments)
	if err != nil {
		return err
	}
	parent.Set(segments[len(segments)-1], normalized)
	return nil
}

func (m *Manager) parent(path string, segments []string) (*reactive.Object, error) {
	current := m.root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current.Child(segment)
		if ok {
			current = next
			continue
		}
		if _, exists := current.Get(segment); exists {
			return nil, fmt.Errorf("%w: %q at %q", ErrNotObject, path, segment)
		}
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return current, nil
}

func splitPath(path string) ([]string, error) {
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
	}
	return segments, nil
}

// Snapshot returns a deep copy of the whole cache.
func (m *Manager) Snapshot() (map[string]any, error) {
	m.mu.Lock()
	defer m.unlock()

	if err := m.ready(); err != nil {
		return nil, err
	}
	return layering.CloneMap(m.cache), nil
}

// Reset restores the cache to the defaults and schedules a write. Persisted
// keys the defaults do not declare are dropped.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.unlock()

	if err := m.ready(); err != nil {
		return err
	}
	m.cache = layering.CloneMap(m.defaults)
	m.root = reactive.Observe(m.cache, m.onChange)
	m.logLater(LogEvent{Op: OpReset, Key: "requested"})
	m.emitLater(activity.BuildNamespaceResetEvent(m.namespaceEvent(activity.NamespaceEventInput{
		Reason: "requested",
		Keys:   m.root.Keys(),
	})))
	m.markDirty()
	return nil
}

// Keys returns the top-level keys declared by the defaults, sorted.
func (m *Manager) Keys() []string {
	return sortedKeys(m.defaults)
}

// Loaded reports whether the cache has been filled from the backend.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.unlock()
	return m.loaded
}

// Namespace returns the backend key the record is stored under.
func (m *Manager) Namespace() string {
	return m.cfg.namespace
}

// Version returns the configured record version.
func (m *Manager) Version() string {
	return m.cfg.version
}

func sortedKeys(tree map[string]any) []string {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
