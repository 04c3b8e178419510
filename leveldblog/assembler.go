package leveldblog

import (
	"fmt"
	"log/slog"
)

// Assembler rebuilds logical payloads from the ordered record stream.
// It holds at most one open fragment at a time: a first record opens
// it, middle records extend it, and a last record completes it. Full
// records pass straight through.
//
// An abandoned fragment (a new full/first record while one is open, or
// end of input) is logged and dropped. A middle or last record with no
// open fragment is protocol corruption and fails the whole parse.
type Assembler struct {
	logger *slog.Logger
	parts  [][]byte
	open   bool
}

// NewAssembler returns an Assembler logging through logger, or
// slog.Default() when nil.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Feed consumes one record. When it completes a logical payload it
// returns the payload bytes with complete=true. The only error it
// returns is the fatal ErrOrphanFragment.
func (a *Assembler) Feed(rec Record) (payload []byte, complete bool, err error) {
	switch rec.Header.Type {
	case RecordFull:
		if a.open {
			a.dropOpenFragment("full record arrived mid-fragment")
		}
		return rec.Payload, true, nil

	case RecordFirst:
		if a.open {
			a.dropOpenFragment("first record arrived mid-fragment")
		}
		a.open = true
		a.parts = append(a.parts[:0], rec.Payload)
		return nil, false, nil

	case RecordMiddle:
		if !a.open {
			return nil, false, fmt.Errorf("%w: middle record", ErrOrphanFragment)
		}
		a.parts = append(a.parts, rec.Payload)
		return nil, false, nil

	case RecordLast:
		if !a.open {
			return nil, false, fmt.Errorf("%w: last record", ErrOrphanFragment)
		}
		a.parts = append(a.parts, rec.Payload)
		payload = a.concat()
		a.reset()
		return payload, true, nil
	}

	// Scanner only emits valid types; anything else is a bug upstream.
	return nil, false, fmt.Errorf("%w: 0x%02x", ErrInvalidRecordType, uint8(rec.Header.Type))
}

// Finish discards a fragment still open at end of input. A writer that
// died mid-sequence leaves exactly this state behind, so it is a
// recoverable truncation rather than an error.
func (a *Assembler) Finish() {
	if a.open {
		a.dropOpenFragment("input ended mid-fragment")
	}
}

// Pending reports whether a fragment is currently open.
func (a *Assembler) Pending() bool {
	return a.open
}

func (a *Assembler) dropOpenFragment(reason string) {
	a.logger.Warn("[fireback.leveldblog] dropping open fragment",
		slog.String("event_type", "assembler.fragment.dropped"),
		slog.String("reason", reason),
		slog.Int("parts", len(a.parts)),
		slog.Int("bytes", a.pendingBytes()),
	)
	a.reset()
}

func (a *Assembler) pendingBytes() int {
	n := 0
	for _, p := range a.parts {
		n += len(p)
	}
	return n
}

func (a *Assembler) concat() []byte {
	out := make([]byte, 0, a.pendingBytes())
	for _, p := range a.parts {
		out = append(out, p...)
	}
	return out
}

func (a *Assembler) reset() {
	a.parts = a.parts[:0]
	a.open = false
}
