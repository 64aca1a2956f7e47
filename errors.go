package persist

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStore   = errors.New("persist: store must be a plain object")
	ErrNoBackend      = errors.New("persist: backend is required")
	ErrInvalidVersion = errors.New("persist: invalid version")
	ErrInvalidValue   = errors.New("persist: value is not JSON serializable")
	ErrUnknownKey     = errors.New("persist: unknown key")
	ErrPathNotFound   = errors.New("persist: path not found")
	ErrNotObject      = errors.New("persist: path does not address an object")
	ErrClosed         = errors.New("persist: manager is closed")
	ErrNoQueryEngine  = errors.New("persist: no query engine configured")
)

// InvalidStoreError reports defaults that do not describe a plain object.
// It matches ErrInvalidStore with errors.Is.
type InvalidStoreError struct {
	Type string
	Err  error
}

func (e *InvalidStoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s, got %s: %v", ErrInvalidStore, e.Type, e.Err)
	}
	return fmt.Sprintf("%s, got %s", ErrInvalidStore, e.Type)
}

func (e *InvalidStoreError) Is(target error) bool {
	return target == ErrInvalidStore
}

func (e *InvalidStoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MalformedRecordError describes a stored record that could not be decoded.
// The manager never returns it: the record is treated as missing and the
// namespace is reset. It reaches loggers through LogEvent.Err.
type MalformedRecordError struct {
	Namespace string
	Err       error
}

func (e *MalformedRecordError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persist: malformed record in namespace %q: %v", e.Namespace, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WriteError wraps a failure to encode or store a namespace record.
type WriteError struct {
	Namespace string
	Err       error
}

func (e *WriteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persist: write namespace %q: %v", e.Namespace, e.Err)
}

func (e *WriteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
