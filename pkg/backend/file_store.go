package backend

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const fileStoreExt = ".record"

// FileStore keeps one file per key inside a directory of an afero.Fs. Writes
// go to a temporary file that is renamed over the target, so a reader never
// observes a partially written value.
type FileStore struct {
	fs  afero.Afero
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir on fsys when missing and returns a store rooted
// there.
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if fsys == nil {
		return nil, fmt.Errorf("backend: filesystem is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("backend: directory is required")
	}
	store := &FileStore{fs: afero.Afero{Fs: fsys}, dir: filepath.Clean(dir)}
	if err := store.fs.MkdirAll(store.dir, 0o755); err != nil {
		return nil, fmt.Errorf("backend: create %q: %w", store.dir, err)
	}
	return store, nil
}

// NewOSFileStore returns a FileStore on the host filesystem.
func NewOSFileStore(dir string) (*FileStore, error) {
	return NewFileStore(afero.NewOsFs(), dir)
}

// Dir returns the directory holding the record files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file that holds key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileStoreExt)
}

func (s *FileStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	raw, err := s.fs.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("backend: read %q: %w", key, err)
	}
	return string(raw), true, nil
}

func (s *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.fs.TempFile(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("backend: write %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("backend: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("backend: write %q: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("backend: write %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("backend: delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys that currently have a record file, in directory order.
func (s *FileStore) Keys() ([]string, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("backend: list %q: %w", s.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileStoreExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileStoreExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
