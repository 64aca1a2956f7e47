package persist

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// normalizeDefaults converts the caller's defaults into a JSON object tree.
// Maps keyed by strings, structs and pointers to structs are accepted.
func normalizeDefaults(defaults any) (map[string]any, error) {
	typeName := fmt.Sprintf("%T", defaults)
	if defaults == nil {
		return nil, &InvalidStoreError{Type: "nil"}
	}

	rv := reflect.ValueOf(defaults)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &InvalidStoreError{Type: typeName}
		}
		if rv.IsNil() {
			return nil, &InvalidStoreError{Type: typeName + " (nil)"}
		}
	case reflect.Struct:
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return nil, &InvalidStoreError{Type: typeName}
		}
	default:
		return nil, &InvalidStoreError{Type: typeName}
	}

	raw, err := json.Marshal(defaults)
	if err != nil {
		return nil, &InvalidStoreError{Type: typeName, Err: err}
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &InvalidStoreError{Type: typeName, Err: err}
	}
	if tree == nil {
		return nil, &InvalidStoreError{Type: typeName}
	}
	return tree, nil
}

// normalizeValue converts value into the types produced by encoding/json so
// the cache only ever holds serializable data.
func normalizeValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return out, nil
}
