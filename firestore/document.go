// Package firestore decodes Firestore export payloads into structured
// documents: identity resolution from resource paths, recursive
// typed-value unwrapping, and export-metadata extraction.
package firestore

import (
	"strings"
	"time"
)

// Document is one decoded Firestore document.
type Document struct {
	ID             string         `json:"id"`
	Collection     string         `json:"collection"`
	Data           map[string]any `json:"data"`
	Subcollections []Document     `json:"subcollections,omitempty"`
	Metadata       Metadata       `json:"metadata"`
}

// Metadata carries the export-level attributes of a document.
type Metadata struct {
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Path      string     `json:"path"`
	SizeBytes *uint64    `json:"size_bytes,omitempty"`
}

// unknownIdentity is the fallback for documents carrying no usable
// identity fields.
const unknownIdentity = "unknown"

// resolveIdentity derives (collection, id) from a decoded object.
// First match wins: a `name` resource path, a `path` resource path,
// explicit `id`+`collection` fields, then the unknown fallback.
func resolveIdentity(obj map[string]any) (collection, id string) {
	for _, key := range []string{"name", "path"} {
		if s, ok := obj[key].(string); ok {
			if c, d, ok := splitResourcePath(s); ok {
				return c, d
			}
		}
	}

	id, idOK := obj["id"].(string)
	collection, colOK := obj["collection"].(string)
	if idOK && colOK {
		return collection, id
	}

	return unknownIdentity, unknownIdentity
}

// splitResourcePath takes the last two segments of a slash-delimited
// resource path, e.g. projects/p/databases/(default)/documents/users/u1
// yields ("users", "u1").
func splitResourcePath(s string) (collection, id string, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	collection = parts[len(parts)-2]
	id = parts[len(parts)-1]
	if collection == "" || id == "" {
		return "", "", false
	}
	return collection, id, true
}

// documentPath returns the document's resource path for metadata, from
// `name` or `path`, defaulting to unknown.
func documentPath(obj map[string]any) string {
	for _, key := range []string{"name", "path"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return unknownIdentity
}

// parseTimestamp returns a parsed RFC-3339 timestamp field or nil.
func parseTimestamp(obj map[string]any, key string) *time.Time {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &ts
}
