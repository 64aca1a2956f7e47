// Package layering composes JSON-shaped option trees. A tree is a
// map[string]any whose values are the types produced by encoding/json:
// map[string]any, []any, string, float64, bool and nil.
package layering

// Merge composes trees ordered from strongest to weakest, returning a new tree
// that keeps every key present in a stronger layer while backfilling keys that
// only weaker layers define. Nested objects merge recursively. Arrays and
// scalars from the strongest layer that defines a key replace weaker values
// wholesale, and an explicit nil is a value, not an absence.
//
// The inputs are never mutated and the result shares no containers with them.
func Merge(layers ...map[string]any) map[string]any {
	if len(layers) == 0 {
		return map[string]any{}
	}

	merged := CloneMap(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeMap(layers[i], merged)
	}
	return merged
}

func mergeMap(strong, weak map[string]any) map[string]any {
	result := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = Clone(value)
	}
	for key, value := range strong {
		existing, ok := result[key]
		if !ok {
			result[key] = Clone(value)
			continue
		}
		result[key] = mergeValue(value, existing)
	}
	return result
}

func mergeValue(strong, weak any) any {
	strongMap, ok := strong.(map[string]any)
	if !ok {
		return Clone(strong)
	}
	weakMap, ok := weak.(map[string]any)
	if !ok {
		return CloneMap(strongMap)
	}
	return mergeMap(strongMap, weakMap)
}

// CloneMap deep copies a tree. A nil map clones to an empty, non-nil map.
func CloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = Clone(value)
	}
	return out
}

// Clone deep copies objects and arrays; any other value is returned as is.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		return CloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}
