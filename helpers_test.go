package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-persist/pkg/backend"
)

// recordingBackend counts reads and writes over a MemoryStore.
type recordingBackend struct {
	*backend.MemoryStore

	mu       sync.Mutex
	reads    int
	writes   int
	getErr   error
	setErr   error
	closed   int
	closeErr error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{MemoryStore: backend.NewMemoryStore()}
}

func (b *recordingBackend) Get(key string) (string, bool, error) {
	b.mu.Lock()
	b.reads++
	err := b.getErr
	b.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return b.MemoryStore.Get(key)
}

func (b *recordingBackend) Set(key, value string) error {
	b.mu.Lock()
	err := b.setErr
	if err == nil {
		b.writes++
	}
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryStore.Set(key, value)
}

func (b *recordingBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return b.closeErr
}

func (b *recordingBackend) failWrites(err error) {
	b.mu.Lock()
	b.setErr = err
	b.mu.Unlock()
}

func (b *recordingBackend) Reads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

func (b *recordingBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// seed stores a raw value without counting it as a write.
func (b *recordingBackend) seed(t *testing.T, key, raw string) {
	t.Helper()
	if err := b.MemoryStore.Set(key, raw); err != nil {
		t.Fatalf("seed %q: %v", key, err)
	}
}

func (b *recordingBackend) seedRecord(t *testing.T, key, version string, data map[string]any) {
	t.Helper()
	raw, err := json.Marshal(Record{Version: version, Data: data})
	if err != nil {
		t.Fatalf("marshal seed record: %v", err)
	}
	b.seed(t, key, string(raw))
}

func (b *recordingBackend) record(t *testing.T, key string) Record {
	t.Helper()
	raw, ok, err := b.MemoryStore.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected record under %q, ok=%v err=%v", key, ok, err)
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("decode record under %q: %v", key, err)
	}
	return record
}

var errBackendDown = errors.New("backend down")

const testDebounce = 40 * time.Millisecond

// waitForWrites polls until the backend has seen want writes.
func waitForWrites(t *testing.T, b *recordingBackend, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.Writes() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d writes, got %d", want, b.Writes())
}

// settle waits long enough for any pending debounce to fire.
func settle() {
	time.Sleep(4 * testDebounce)
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	path := filepath.Join("testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", path, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", path, err)
	}
	return out
}
