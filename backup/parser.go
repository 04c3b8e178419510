package backup

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/uber-go/tally/v4"
	"golang.org/x/time/rate"

	"github.com/fireback-io/fireback/firestore"
	"github.com/fireback-io/fireback/leveldblog"
	"github.com/fireback-io/fireback/pkg/tracker"
	"github.com/fireback-io/fireback/pkg/umetrics"
)

// maxLineSize bounds one JSON-lines document. Firestore documents top
// out at 1 MiB; 16 MiB leaves room for exports that inline
// subcollections.
const maxLineSize = 16 << 20

// Parser turns one backup file into a ParseResult. A Parser is safe
// for concurrent use; each Parse call carries its own state.
type Parser struct {
	logger  *slog.Logger
	tracker tracker.Tracker
	limiter *rate.Limiter
	noLock  bool

	scope            tally.Scope
	blocksProcessed  tally.Counter
	recordsProcessed tally.Counter
	documentsDecoded tally.Counter
	parseErrors      tally.Counter
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger overrides slog.Default.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracker attaches an operation tracker. The default is a no-op.
func WithTracker(t tracker.Tracker) ParserOption {
	return func(p *Parser) {
		if t != nil {
			p.tracker = t
		}
	}
}

// WithProgressInterval throttles tracker progress updates. Zero or
// negative disables throttling.
func WithProgressInterval(interval time.Duration) ParserOption {
	return func(p *Parser) {
		if interval <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithoutFileLock skips the shared advisory lock on the backup file.
func WithoutFileLock() ParserOption {
	return func(p *Parser) {
		p.noLock = true
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger:  slog.Default(),
		tracker: tracker.Nop{},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		scope:   umetrics.Scope("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.blocksProcessed = p.scope.Counter("blocks_processed")
	p.recordsProcessed = p.scope.Counter("records_processed")
	p.documentsDecoded = p.scope.Counter("documents_decoded")
	p.parseErrors = p.scope.Counter("parse_errors")
	return p
}

// Parse reads the backup at path. The returned error is reserved for
// failures that make continuing meaningless: open and read errors,
// context cancellation, and orphan-fragment corruption. Everything
// else lands in ParseResult.Errors, and the result carries whatever
// was decoded before a terminal failure.
func (p *Parser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	op := p.tracker.Start("backup.parse", map[string]string{"path": path})

	if !p.noLock {
		if unlock := p.acquireSharedLock(path); unlock != nil {
			defer unlock()
		}
	}

	format := DetectFormat(path)
	p.logger.Info("[fireback.backup] parse started",
		slog.String("event_type", "parse.started"),
		slog.String("path", path),
		slog.String("format", format.String()),
	)

	start := time.Now()
	var (
		res *ParseResult
		err error
	)
	switch format {
	case FormatJSONLines:
		res, err = p.parseJSONLines(ctx, path, op)
	default:
		res, err = p.parseLevelDBLog(ctx, path, op)
	}

	res.Metadata.DocumentCount = len(res.Documents)
	res.Metadata.CollectionCount = len(res.Collections)

	result := classify(res, err)
	p.audit(path, res, result, err)

	if err != nil {
		op.Fail(err)
		p.logger.Error("[fireback.backup] parse failed",
			slog.String("event_type", "parse.failed"),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return res, err
	}
	op.Complete()

	p.logger.Info("[fireback.backup] parse finished",
		slog.String("event_type", "parse.finished"),
		slog.String("path", path),
		slog.Int("documents", res.Metadata.DocumentCount),
		slog.Int("collections", res.Metadata.CollectionCount),
		slog.Int("errors", len(res.Errors)),
		slog.Duration("took", time.Since(start)),
	)
	return res, nil
}

// acquireSharedLock takes a shared advisory lock so an importer
// writing the same export is noticed. Failure to lock downgrades to a
// warning; the parse proceeds either way. A missing file is never
// locked: flock would create it, masking the fatal open error.
func (p *Parser) acquireSharedLock(path string) func() {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	lock := flock.New(path)
	ok, err := lock.TryRLock()
	if err != nil || !ok {
		p.logger.Warn("[fireback.backup] shared lock unavailable, parsing anyway",
			slog.String("event_type", "parse.lock.unavailable"),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return nil
	}
	return func() {
		_ = lock.Unlock()
	}
}

func (p *Parser) parseLevelDBLog(ctx context.Context, path string, op tracker.Operation) (*ParseResult, error) {
	res := &ParseResult{}

	br, err := leveldblog.NewBlockReader(path)
	if err != nil {
		return res, err
	}
	defer br.Close()

	res.Metadata.FileSize = br.Size()

	asm := leveldblog.NewAssembler(p.logger)
	seen := make(map[string]struct{})
	block := 0
	for {
		if cErr := ctx.Err(); cErr != nil {
			return res, cErr
		}

		data, rErr := br.Next()
		if errors.Is(rErr, io.EOF) {
			break
		}
		if rErr != nil {
			return res, rErr
		}

		records, scanErrs := leveldblog.ScanBlock(data)
		for _, se := range scanErrs {
			p.parseErrors.Inc(1)
			res.Errors = append(res.Errors, ParseError{Block: block, Offset: se.Offset, Record: -1, Err: se.Err})
		}

		for _, rec := range records {
			payload, complete, fErr := asm.Feed(rec)
			if fErr != nil {
				return res, fmt.Errorf("block %d: %w", block, fErr)
			}
			if !complete {
				continue
			}

			res.Metadata.RecordsProcessed++
			p.recordsProcessed.Inc(1)

			doc, dErr := firestore.DecodeRecord(payload)
			if dErr != nil {
				p.parseErrors.Inc(1)
				res.Errors = append(res.Errors, ParseError{
					Block:  block,
					Offset: -1,
					Record: res.Metadata.RecordsProcessed - 1,
					Err:    dErr,
				})
				continue
			}
			if doc == nil {
				continue
			}
			p.addDocument(res, seen, *doc)
		}

		block++
		res.Metadata.BlocksProcessed++
		p.blocksProcessed.Inc(1)

		if p.limiter.Allow() {
			op.Progress(uint64(res.Metadata.RecordsProcessed))
		}
	}

	// A fragment still open at EOF means the final record was cut
	// off mid-write; it is dropped with a warning, not an error.
	asm.Finish()
	return res, nil
}

func (p *Parser) parseJSONLines(ctx context.Context, path string, op tracker.Operation) (*ParseResult, error) {
	res := &ParseResult{}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	if info, sErr := f.Stat(); sErr == nil {
		res.Metadata.FileSize = uint64(info.Size())
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	seen := make(map[string]struct{})
	line := 0
	for scanner.Scan() {
		line++
		if line%1024 == 0 {
			if cErr := ctx.Err(); cErr != nil {
				return res, cErr
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		res.Metadata.RecordsProcessed++
		p.recordsProcessed.Inc(1)

		doc, dErr := firestore.DecodeRecord(raw)
		if dErr != nil {
			// Malformed lines are expected in hand-edited or
			// truncated exports; skip without recording.
			p.logger.Debug("[fireback.backup] skipping malformed line",
				slog.String("event_type", "parse.line.skipped"),
				slog.Int("line", line),
			)
			continue
		}
		if doc == nil {
			continue
		}
		p.addDocument(res, seen, *doc)

		if p.limiter.Allow() {
			op.Progress(uint64(res.Metadata.RecordsProcessed))
		}
	}
	if sErr := scanner.Err(); sErr != nil {
		return res, sErr
	}
	return res, nil
}

func (p *Parser) addDocument(res *ParseResult, seen map[string]struct{}, doc firestore.Document) {
	res.Documents = append(res.Documents, doc)
	p.documentsDecoded.Inc(1)
	if _, ok := seen[doc.Collection]; !ok {
		seen[doc.Collection] = struct{}{}
		res.Collections = append(res.Collections, doc.Collection)
	}
}

func classify(res *ParseResult, err error) tracker.Result {
	switch {
	case err != nil:
		return tracker.ResultFailure
	case len(res.Errors) > 0 && len(res.Documents) == 0:
		return tracker.ResultFailure
	case len(res.Errors) > 0:
		return tracker.ResultPartial
	default:
		return tracker.ResultSuccess
	}
}

func (p *Parser) audit(path string, res *ParseResult, result tracker.Result, err error) {
	detail := "backup parsed"
	if err != nil {
		detail = err.Error()
	}
	p.tracker.Audit(tracker.Entry{
		Timestamp: time.Now().UTC(),
		Resource:  path,
		Action:    "parse",
		Result:    result,
		Detail:    detail,
		Fields: map[string]string{
			"file_size":   humanize.Bytes(res.Metadata.FileSize),
			"documents":   humanize.Comma(int64(res.Metadata.DocumentCount)),
			"collections": humanize.Comma(int64(res.Metadata.CollectionCount)),
			"blocks":      humanize.Comma(int64(res.Metadata.BlocksProcessed)),
			"records":     humanize.Comma(int64(res.Metadata.RecordsProcessed)),
			"errors":      humanize.Comma(int64(len(res.Errors))),
		},
	})
}
