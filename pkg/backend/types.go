package backend

import "errors"

// ErrEmptyKey reports a Get/Set/Delete call without a key.
var ErrEmptyKey = errors.New("backend: key must not be empty")

// Backend reads and writes string values by key. Get reports ok=false when
// the key is absent; an error means the backend itself failed.
type Backend interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Deleter is implemented by backends that can remove keys.
type Deleter interface {
	Delete(key string) error
}
