package firestore_test

import (
	"encoding/json"
	"testing"

	"github.com/fireback-io/fireback/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshalValue(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestUnwrap_ScalarWrappers(t *testing.T) {
	t.Run("stringValue", func(t *testing.T) {
		v := unmarshalValue(t, `{"stringValue": "John Doe"}`)
		assert.Equal(t, "John Doe", firestore.Unwrap(v))
	})

	t.Run("booleanValue", func(t *testing.T) {
		v := unmarshalValue(t, `{"booleanValue": true}`)
		assert.Equal(t, true, firestore.Unwrap(v))
	})

	t.Run("timestampValue", func(t *testing.T) {
		v := unmarshalValue(t, `{"timestampValue": "2023-01-01T00:00:00Z"}`)
		assert.Equal(t, "2023-01-01T00:00:00Z", firestore.Unwrap(v))
	})

	t.Run("integerValue parses string payload", func(t *testing.T) {
		v := unmarshalValue(t, `{"integerValue": "30"}`)
		assert.Equal(t, int64(30), firestore.Unwrap(v))
	})

	t.Run("integerValue falls back on bad payload", func(t *testing.T) {
		v := unmarshalValue(t, `{"integerValue": "not-a-number"}`)
		assert.Equal(t, "not-a-number", firestore.Unwrap(v))
	})

	t.Run("doubleValue parses string payload", func(t *testing.T) {
		v := unmarshalValue(t, `{"doubleValue": "3.25"}`)
		assert.Equal(t, 3.25, firestore.Unwrap(v))
	})
}

func TestUnwrap_IdempotentOnPlainValues(t *testing.T) {
	plain := []string{
		`"just a string"`,
		`42`,
		`true`,
		`null`,
		`[1, 2, 3]`,
		`{"a": 1, "b": 2}`,
	}
	for _, raw := range plain {
		v := unmarshalValue(t, raw)
		assert.Equal(t, v, firestore.Unwrap(v), "plain value %s must pass through unchanged", raw)
	}
}

func TestUnwrap_MultiKeyObjectPassesThrough(t *testing.T) {
	// Two keys means it is not a typed wrapper, even if one key looks
	// like a tag.
	v := unmarshalValue(t, `{"stringValue": "x", "other": 1}`)
	assert.Equal(t, v, firestore.Unwrap(v))
}

func TestUnwrap_NestedWrappersResolveRecursively(t *testing.T) {
	raw := `{
		"mapValue": {
			"fields": {
				"tags": {"arrayValue": {"values": [
					{"stringValue": "a"},
					{"integerValue": "7"}
				]}},
				"inner": {"mapValue": {"fields": {
					"flag": {"booleanValue": false}
				}}}
			}
		}
	}`
	v := unmarshalValue(t, raw)

	want := map[string]any{
		"tags":  []any{"a", int64(7)},
		"inner": map[string]any{"flag": false},
	}
	assert.Equal(t, want, firestore.Unwrap(v))
}

func TestUnwrap_EmptyArrayAndMapWrappers(t *testing.T) {
	assert.Equal(t, []any{}, firestore.Unwrap(unmarshalValue(t, `{"arrayValue": {}}`)))
	assert.Equal(t, map[string]any{}, firestore.Unwrap(unmarshalValue(t, `{"mapValue": {}}`)))
}
