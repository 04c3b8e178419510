package backup

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"unicode"
	"unicode/utf8"
)

// Format identifies the on-disk layout of a backup file.
type Format int

const (
	// FormatLevelDBLog is the record-and-block layout Firestore
	// exports use. It is the default whenever detection is unsure.
	FormatLevelDBLog Format = iota
	// FormatJSONLines is one JSON document per newline-terminated line.
	FormatJSONLines
)

func (f Format) String() string {
	switch f {
	case FormatLevelDBLog:
		return "leveldb-log"
	case FormatJSONLines:
		return "json-lines"
	default:
		return "unknown"
	}
}

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// sniffLen is how much of the file the format probe inspects.
const sniffLen = 8192

// printableThreshold is the minimum fraction of printable runes a
// prefix must hold to be classified as JSON lines. Binary log blocks
// carry checksums and length fields that fail this quickly.
const printableThreshold = 0.95

// SniffFormat classifies a file prefix. A prefix is JSON lines only
// when it is valid UTF-8, opens at least one object or array, spans
// more than one line, and is almost entirely printable text.
func SniffFormat(prefix []byte) Format {
	if len(prefix) == 0 {
		return FormatLevelDBLog
	}
	if !utf8.Valid(prefix) {
		return FormatLevelDBLog
	}
	if !bytes.ContainsAny(prefix, "{[") {
		return FormatLevelDBLog
	}
	if !bytes.ContainsRune(prefix, '\n') {
		return FormatLevelDBLog
	}

	var printable, total int
	for _, r := range string(prefix) {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if float64(printable) < printableThreshold*float64(total) {
		return FormatLevelDBLog
	}
	return FormatJSONLines
}

// DetectFormat probes the first sniffLen bytes of path. Any I/O
// failure falls back to the LevelDB log format; the parser surfaces
// the real error on open.
func DetectFormat(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return FormatLevelDBLog
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatLevelDBLog
	}
	return SniffFormat(buf[:n])
}
