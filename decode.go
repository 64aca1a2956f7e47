package persist

import "github.com/goliatone/go-persist/internal/hydrate"

// DecodeContext identifies the namespace handed to decode hooks.
type DecodeContext = hydrate.Context

// DecodeOption configures Decode.
type DecodeOption[T any] = hydrate.Option[T]

// Decode converts a snapshot of the cache into T through encoding/json.
func Decode[T any](m *Manager, opts ...DecodeOption[T]) (T, error) {
	var zero T
	data, err := m.Snapshot()
	if err != nil {
		return zero, err
	}
	decoder := hydrate.NewDecoder(opts...)
	return decoder.Decode(DecodeContext{Namespace: m.Namespace(), Version: m.Version()}, data)
}

// DecodeWithPreHook rewrites the tree before it is decoded.
func DecodeWithPreHook[T any](hook func(DecodeContext, map[string]any) (map[string]any, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](hook)
}

// DecodeWithPostHook adjusts or validates the decoded value.
func DecodeWithPostHook[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](hook)
}

// DecodeUseNumber decodes numbers into interface fields as json.Number
// instead of float64.
func DecodeUseNumber[T any]() DecodeOption[T] {
	return hydrate.WithUseNumber[T]()
}

// DecodeDisallowUnknownFields fails the decode when the cache holds a key
// that has no matching field in T.
func DecodeDisallowUnknownFields[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}
