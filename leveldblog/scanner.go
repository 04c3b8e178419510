package leveldblog

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// ScanError is a local, recoverable failure at one offset within a
// block. The scan resynchronizes at the next byte and keeps going, so
// a single corrupt record never costs the rest of the block.
type ScanError struct {
	Offset int
	Err    error
}

func (e ScanError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e ScanError) Unwrap() error {
	return e.Err
}

// ScanBlock walks a raw block from offset 0 and extracts its records.
// Trailing all-zero bytes are padding and end the scan without error.
// A bad type byte, a record that runs past the block, or a checksum
// mismatch is reported as a ScanError and the scan resumes one byte
// later.
func ScanBlock(block []byte) ([]Record, []ScanError) {
	var (
		records []Record
		errs    []ScanError
	)

	offset := 0
	for offset < len(block) {
		if allZero(block[offset:]) {
			break
		}

		if len(block)-offset < HeaderSize {
			errs = append(errs, ScanError{Offset: offset, Err: fmt.Errorf("%w: %d bytes left for header", ErrTruncatedRecord, len(block)-offset)})
			offset++
			continue
		}

		hdr := Header{
			Checksum: binary.LittleEndian.Uint32(block[offset : offset+4]),
			Length:   binary.LittleEndian.Uint16(block[offset+4 : offset+6]),
			Type:     RecordType(block[offset+6]),
		}

		if !hdr.Type.Valid() {
			errs = append(errs, ScanError{Offset: offset, Err: fmt.Errorf("%w: 0x%02x", ErrInvalidRecordType, uint8(hdr.Type))})
			offset++
			continue
		}

		end := offset + HeaderSize + int(hdr.Length)
		if end > len(block) {
			errs = append(errs, ScanError{Offset: offset, Err: fmt.Errorf("%w: need %d bytes, block has %d", ErrTruncatedRecord, end-offset, len(block)-offset)})
			offset++
			continue
		}

		payload := block[offset+HeaderSize : end]
		if sum := Checksum(hdr.Type, payload); sum != hdr.Checksum {
			errs = append(errs, ScanError{Offset: offset, Err: fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, hdr.Checksum, sum)})
			offset++
			continue
		}

		records = append(records, Record{Header: hdr, Payload: payload})
		offset = end
	}

	return records, errs
}

// Checksum is CRC-32 (IEEE) over the type byte followed by the
// payload, matching what the backup writer stores in the header.
func Checksum(t RecordType, payload []byte) uint32 {
	sum := crc32.ChecksumIEEE([]byte{byte(t)})
	return crc32.Update(sum, crc32.IEEETable, payload)
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
