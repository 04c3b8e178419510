// Package backup orchestrates parsing one Firestore export file into
// decoded documents. It detects the on-disk format, walks LevelDB log
// blocks or JSON lines, and collects every recoverable error instead
// of aborting.
package backup

import (
	"fmt"

	"github.com/fireback-io/fireback/firestore"
)

// BackupMetadata summarizes one parse run.
type BackupMetadata struct {
	FileSize         uint64 `json:"file_size"`
	DocumentCount    int    `json:"document_count"`
	CollectionCount  int    `json:"collection_count"`
	BlocksProcessed  int    `json:"blocks_processed"`
	RecordsProcessed int    `json:"records_processed"`
}

// ParseError records one recoverable failure with enough position
// information to locate the bad bytes in the source file. Offset is
// relative to the block start and is -1 when the failure is not tied
// to a byte position. Record is the logical record ordinal, -1 for
// failures below the record layer.
type ParseError struct {
	Block  int   `json:"block"`
	Offset int   `json:"offset"`
	Record int   `json:"record"`
	Err    error `json:"-"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("block %d offset %d record %d: %v", e.Block, e.Offset, e.Record, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ParseResult holds everything recovered from one backup file.
// Collections preserves first-seen order.
type ParseResult struct {
	Documents   []firestore.Document `json:"documents"`
	Collections []string             `json:"collections"`
	Metadata    BackupMetadata       `json:"metadata"`
	Errors      []ParseError         `json:"errors,omitempty"`
}
