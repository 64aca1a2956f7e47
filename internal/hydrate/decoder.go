// Package hydrate decodes a namespace data tree into a typed struct.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-persist/layering"
)

// Context identifies the namespace a payload was read from.
type Context struct {
	Namespace string
	Version   string
}

// PreHook lets callers rewrite the tree before decoding. Returning nil keeps
// the current tree.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Decoder converts data trees into values of type T through encoding/json.
type Decoder[T any] struct {
	preHooks       []PreHook
	postHooks      []PostHook[T]
	useNumber      bool
	disallowFields bool
}

// WithPreHook runs hook before decoding.
func WithPreHook[T any](hook PreHook) Option[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook runs hook after decoding.
func WithPostHook[T any](hook PostHook[T]) Option[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber decodes numbers into json.Number for interface fields.
func WithUseNumber[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.useNumber = true
	}
}

// WithDisallowUnknownFields fails when the tree has keys T does not declare.
func WithDisallowUnknownFields[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.disallowFields = true
	}
}

func NewDecoder[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts tree into T. The tree is cloned first, so hooks may mutate
// their argument freely.
func (d *Decoder[T]) Decode(ctx Context, tree map[string]any) (T, error) {
	var zero T

	if tree == nil {
		return zero, fmt.Errorf("hydrate: tree is nil for namespace %q", ctx.Namespace)
	}

	current := layering.CloneMap(tree)
	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for namespace %q failed: %w", ctx.Namespace, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal namespace %q: %w", ctx.Namespace, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.useNumber {
		decoder.UseNumber()
	}
	if d.disallowFields {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode namespace %q: %w", ctx.Namespace, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for namespace %q failed: %w", ctx.Namespace, err)
		}
	}

	return result, nil
}
