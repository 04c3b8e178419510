// Package leveldblog reads the fixed-size block log format used by
// Firestore export backups: 32KiB blocks containing back-to-back
// checksummed records, where a logical payload may be fragmented
// across several records with first/middle/last markers.
package leveldblog

import (
	"errors"
	"fmt"
)

const (
	// BlockSize is the aligned I/O unit of a backup file. Every block
	// except the last one is exactly this long.
	BlockSize = 32768

	// HeaderSize is the fixed per-record header length:
	// checksum (4B LE) + payload length (2B LE) + type (1B).
	HeaderSize = 7
)

// RecordType marks whether a record carries a whole logical payload
// or one fragment of a larger one.
type RecordType uint8

const (
	RecordFull RecordType = iota + 1
	RecordFirst
	RecordMiddle
	RecordLast
)

func (t RecordType) String() string {
	switch t {
	case RecordFull:
		return "full"
	case RecordFirst:
		return "first"
	case RecordMiddle:
		return "middle"
	case RecordLast:
		return "last"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Valid reports whether t is one of the four defined type bytes.
func (t RecordType) Valid() bool {
	return t >= RecordFull && t <= RecordLast
}

var (
	ErrInvalidRecordType = errors.New("invalid record type byte")
	ErrTruncatedRecord   = errors.New("record extends past block bounds")
	ErrChecksumMismatch  = errors.New("record checksum mismatch")

	// ErrOrphanFragment is the fatal protocol error: a middle or last
	// record arrived with no open fragment to attach to.
	ErrOrphanFragment = errors.New("fragment continuation without a first record")
)

// Header is the decoded 7-byte record header.
type Header struct {
	Checksum uint32
	Length   uint16
	Type     RecordType
}

// Record is one physical record scanned out of a block: a validated
// header plus its payload bytes.
type Record struct {
	Header  Header
	Payload []byte
}
