package firestore

import "strconv"

// Unwrap resolves Firestore's typed-value wire encoding into plain
// JSON values. A wrapper is a single-key object whose key is one of
// the typed-value tags; anything else passes through unchanged, which
// makes Unwrap idempotent on already-plain values. mapValue and
// arrayValue interiors are unwrapped recursively.
func Unwrap(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}

	for tag, inner := range m {
		switch tag {
		case "stringValue", "booleanValue", "timestampValue":
			return inner

		case "integerValue":
			// Firestore encodes 64-bit integers as strings.
			if s, ok := inner.(string); ok {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					return n
				}
			}
			return inner

		case "doubleValue":
			if s, ok := inner.(string); ok {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					return f
				}
			}
			return inner

		case "arrayValue":
			wrapped, ok := inner.(map[string]any)
			if !ok {
				return v
			}
			values, _ := wrapped["values"].([]any)
			out := make([]any, len(values))
			for i, elem := range values {
				out[i] = Unwrap(elem)
			}
			return out

		case "mapValue":
			wrapped, ok := inner.(map[string]any)
			if !ok {
				return v
			}
			fields, _ := wrapped["fields"].(map[string]any)
			out := make(map[string]any, len(fields))
			for k, elem := range fields {
				out[k] = Unwrap(elem)
			}
			return out
		}
	}

	return v
}
