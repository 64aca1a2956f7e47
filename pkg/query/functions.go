package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrFunctionExists reports a second registration under the same name.
	ErrFunctionExists = errors.New("query: function already registered")
	// ErrInvalidFunction reports a nil function or a name engines cannot bind.
	ErrInvalidFunction = errors.New("query: invalid function")
	// ErrUnknownFunction reports a call to a name nothing registered.
	ErrUnknownFunction = errors.New("query: function not registered")
)

// reservedNames are bound by every engine environment.
var reservedNames = map[string]struct{}{
	"now":       {},
	"args":      {},
	"namespace": {},
	"version":   {},
	"data":      {},
	"call":      {},
}

// Function represents a callable registered against engines.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by lower-cased name.
//
// Every registry carries an identity that changes whenever its function set
// does. Engines fold it into program cache keys so a cache shared between
// engines never hands one registry's compiled program to another.
type FunctionRegistry struct {
	mu        sync.RWMutex
	id        string
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		id:        uuid.NewString(),
		functions: make(map[string]Function),
	}
}

// Register stores fn under the lower-cased name. The name must be an
// identifier and must not shadow an environment binding such as data or now.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case fn == nil:
		return fmt.Errorf("%w: %q is nil", ErrInvalidFunction, name)
	case !isIdentifier(key):
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunction, name)
	}
	if _, reserved := reservedNames[key]; reserved {
		return fmt.Errorf("%w: %q shadows an environment binding", ErrInvalidFunction, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q (as %q)", ErrFunctionExists, name, key)
	}
	r.functions[key] = fn
	r.id = uuid.NewString()
	return nil
}

// Clone returns a shallow copy of the registry with its own identity.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		id:        uuid.NewString(),
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// ID identifies the current function set. A nil registry reports "".
func (r *FunctionRegistry) ID() string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[key]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	result, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("query: function %q: %w", key, err)
	}
	return result, nil
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
