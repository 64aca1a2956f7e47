// Package reactive tracks mutations on a JSON-shaped object tree.
//
// Observe walks a tree once and wraps every nested object node the first time
// it is seen. All writes go through (*Object).Set, which skips values that are
// the same as the current one and reports every other write to a single
// callback, however deep the node sits in the tree.
//
// Objects are not safe for concurrent use; callers serialize access.
package reactive

import (
	"reflect"
	"sort"
)

// Change describes one write that altered the tree.
type Change struct {
	Path []string
	Old  any
	New  any
}

// Notify receives every change applied through an Object.
type Notify func(Change)

// Object wraps one object node of an observed tree.
type Object struct {
	node     map[string]any
	path     []string
	children map[string]*Object
	notify   Notify
}

// IsPlainObject reports whether value is a non-nil map[string]any. Arrays,
// scalars and other map types are not plain objects.
func IsPlainObject(value any) bool {
	m, ok := value.(map[string]any)
	return ok && m != nil
}

// Observe wraps root and all of its nested object nodes. It returns nil when
// root is not a plain object. Observing a node twice installs fresh wrappers;
// the tree itself is left untouched. Cyclic trees are not supported.
func Observe(root any, notify Notify) *Object {
	if !IsPlainObject(root) {
		return nil
	}
	if notify == nil {
		notify = func(Change) {}
	}
	return observe(root.(map[string]any), nil, notify)
}

func observe(node map[string]any, path []string, notify Notify) *Object {
	obj := &Object{
		node:     node,
		path:     path,
		children: map[string]*Object{},
		notify:   notify,
	}
	for key, value := range node {
		obj.track(key, value)
	}
	return obj
}

func (o *Object) track(key string, value any) {
	delete(o.children, key)
	if child, ok := value.(map[string]any); ok && child != nil {
		o.children[key] = observe(child, o.childPath(key), o.notify)
	}
}

func (o *Object) childPath(key string) []string {
	path := make([]string, len(o.path)+1)
	copy(path, o.path)
	path[len(o.path)] = key
	return path
}

// Path returns the keys leading from the root to this node.
func (o *Object) Path() []string {
	return append([]string(nil), o.path...)
}

// Value returns the wrapped node. Writing to it directly bypasses tracking.
func (o *Object) Value() map[string]any {
	return o.node
}

// Keys returns the node's keys in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.node))
	for key := range o.node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the raw value stored under key.
func (o *Object) Get(key string) (any, bool) {
	value, ok := o.node[key]
	return value, ok
}

// Child returns the wrapper of the nested object stored under key.
func (o *Object) Child(key string) (*Object, bool) {
	child, ok := o.children[key]
	return child, ok
}

// Descend follows path through nested object nodes.
func (o *Object) Descend(path []string) (*Object, bool) {
	current := o
	for _, key := range path {
		next, ok := current.Child(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set stores value under key and reports whether the tree changed. Writing a
// value that is the same as the current one is a no-op and does not notify.
// An assigned object is wrapped before the callback runs so later writes to
// it are tracked too.
func (o *Object) Set(key string, value any) bool {
	old, exists := o.node[key]
	if exists && SameValue(old, value) {
		return false
	}
	o.node[key] = value
	o.track(key, value)
	o.notify(Change{Path: o.childPath(key), Old: old, New: value})
	return true
}

// SameValue reports identity for maps, slices and other reference kinds and
// equality for comparable values. Two distinct containers with equal contents
// are not the same value, and NaN is never the same as itself. Slices compare
// by backing array and length, so zero-length slices may share identity.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}
	if !ra.Comparable() || !rb.Comparable() {
		return false
	}
	return ra.Equal(rb)
}
