package output

import (
	"io"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// CollectionCount is one collection and how many documents it holds.
type CollectionCount struct {
	Name      string `json:"name"`
	Documents int64  `json:"documents"`
}

// ParseIssue is one recoverable parse failure with its position.
type ParseIssue struct {
	Block   int    `json:"block"`
	Offset  int    `json:"offset"`
	Record  int    `json:"record"`
	Message string `json:"message"`
}

// ParseSummary is the CLI view of one parsed backup file.
type ParseSummary struct {
	Path             string            `json:"path"`
	Format           string            `json:"format"`
	FileSize         uint64            `json:"file_size"`
	FileSizeHuman    string            `json:"file_size_human"`
	Documents        int64             `json:"documents"`
	Collections      []CollectionCount `json:"collections"`
	BlocksProcessed  int64             `json:"blocks_processed"`
	RecordsProcessed int64             `json:"records_processed"`
	Issues           []ParseIssue      `json:"issues,omitempty"`
	TookMillis       int64             `json:"took_ms"`
}

// ValidationSummary is the CLI view of a structure check.
type ValidationSummary struct {
	Path           string   `json:"path"`
	Format         string   `json:"format"`
	FileSizeHuman  string   `json:"file_size_human"`
	BlocksScanned  int      `json:"blocks_scanned"`
	RecordsScanned int      `json:"records_scanned"`
	CorruptRecords int      `json:"corrupt_records"`
	IntegrityScore float64  `json:"integrity_score"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ResolveSummary shows which file a backup path resolved to.
type ResolveSummary struct {
	Input    string `json:"input"`
	Resolved string `json:"resolved"`
	Format   string `json:"format"`
}

// Formatter is the interface for output formatting.
type Formatter interface {
	WriteParseSummary(w io.Writer, summary ParseSummary) error
	WriteValidation(w io.Writer, summary ValidationSummary) error
	WriteResolve(w io.Writer, summary ResolveSummary) error
}

// NewFormatter creates a new formatter for the given format.
func NewFormatter(format Format) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{}
	}
	return &TableFormatter{}
}
