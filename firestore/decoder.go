package firestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnparseableRecord marks a payload that is neither valid JSON nor
// a recognizable metadata record. Local to the record, never fatal.
var ErrUnparseableRecord = errors.New("unparseable record payload")

// minDocumentSize filters out payloads too small to be a document.
const minDocumentSize = 10

// Reserved top-level keys that describe the document rather than its
// fields; they never land in Document.Data.
var reservedKeys = map[string]struct{}{
	"name":       {},
	"path":       {},
	"id":         {},
	"collection": {},
	"createTime": {},
	"updateTime": {},
	"readTime":   {},
}

// DecodeRecord turns one complete record payload (or one JSON-Lines
// line) into a Document. It returns (nil, nil) for payloads that are
// not documents: metadata/system records and non-object JSON values.
// The only error it produces is a local unparseable-record error.
func DecodeRecord(payload []byte) (*Document, error) {
	var top any
	if err := json.Unmarshal(payload, &top); err != nil {
		if isMetadataRecord(payload) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnparseableRecord, err)
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return nil, nil
	}

	if isMetadataRecord(payload) {
		return nil, nil
	}

	collection, id := resolveIdentity(obj)

	data := make(map[string]any)
	if fields, ok := obj["fields"].(map[string]any); ok {
		for k, v := range fields {
			data[k] = Unwrap(v)
		}
	} else {
		for k, v := range obj {
			if _, reserved := reservedKeys[k]; reserved {
				continue
			}
			data[k] = v
		}
	}

	return &Document{
		ID:         id,
		Collection: collection,
		Data:       data,
		Metadata: Metadata{
			CreatedAt: parseTimestamp(obj, "createTime"),
			UpdatedAt: parseTimestamp(obj, "updateTime"),
			Path:      documentPath(obj),
		},
	}, nil
}

// isMetadataRecord classifies internal export bookkeeping payloads:
// too short to be a document, tagged _metadata/_system, or starting
// with a dunder prefix.
func isMetadataRecord(payload []byte) bool {
	if len(payload) < minDocumentSize {
		return true
	}
	if bytes.HasPrefix(payload, []byte("__")) {
		return true
	}
	return bytes.Contains(payload, []byte("_metadata")) ||
		bytes.Contains(payload, []byte("_system"))
}
