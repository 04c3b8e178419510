package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uber-go/tally/v4"
)

// Config bounds the in-memory histories kept by a Memory tracker.
type Config struct {
	MaxCompletedOperations int
	MaxAuditEntries        int
}

// DefaultConfig mirrors the limits used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxCompletedOperations: 1000,
		MaxAuditEntries:        10000,
	}
}

// OperationRecord is the finished view of a tracked operation.
type OperationRecord struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Duration  time.Duration     `json:"duration"`
	Records   uint64            `json:"records"`
	Status    Status            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Stats aggregates everything a Memory tracker has seen.
type Stats struct {
	ActiveOperations    int           `json:"active_operations"`
	CompletedOperations int           `json:"completed_operations"`
	TotalOperations     int           `json:"total_operations"`
	Successful          int           `json:"successful"`
	Failed              int           `json:"failed"`
	AvgDuration         time.Duration `json:"avg_duration"`
	TotalRecords        uint64        `json:"total_records"`
	AuditEntries        int           `json:"audit_entries"`
}

// MemoryOption configures a Memory tracker.
type MemoryOption func(*Memory)

// WithScope attaches a tally scope for operation counters and timers.
func WithScope(scope tally.Scope) MemoryOption {
	return func(m *Memory) {
		m.scope = scope
	}
}

// WithLogger sets the slog logger used for audit and lifecycle events.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = logger
	}
}

// Memory is a Tracker keeping bounded operation and audit histories in
// process memory. Safe for concurrent use.
type Memory struct {
	cfg    Config
	logger *slog.Logger
	scope  tally.Scope

	mu        sync.Mutex
	active    map[string]*memOperation
	completed []OperationRecord
	audit     []Entry
	succeeded int
	failed    int
}

// NewMemory builds a Memory tracker with the given bounds.
func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	if cfg.MaxCompletedOperations <= 0 {
		cfg.MaxCompletedOperations = DefaultConfig().MaxCompletedOperations
	}
	if cfg.MaxAuditEntries <= 0 {
		cfg.MaxAuditEntries = DefaultConfig().MaxAuditEntries
	}
	m := &Memory{
		cfg:    cfg,
		logger: slog.Default(),
		scope:  tally.NoopScope,
		active: make(map[string]*memOperation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins tracking a named operation.
func (m *Memory) Start(name string, metadata map[string]string) Operation {
	op := &memOperation{
		tracker: m,
		record: OperationRecord{
			ID:        uuid.NewString(),
			Name:      name,
			StartedAt: time.Now(),
			Status:    StatusRunning,
			Metadata:  metadata,
		},
	}

	m.mu.Lock()
	m.active[op.record.ID] = op
	m.mu.Unlock()

	m.scope.Counter("operations_started").Inc(1)
	m.logger.Debug("[fireback.tracker] operation started",
		slog.String("operation_id", op.record.ID),
		slog.String("operation", name),
	)
	return op
}

// Audit appends one audit entry, assigning it an ID and timestamp.
func (m *Memory) Audit(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.audit = append(m.audit, entry)
	if len(m.audit) > m.cfg.MaxAuditEntries {
		m.audit = m.audit[len(m.audit)-m.cfg.MaxAuditEntries:]
	}
	m.mu.Unlock()

	m.logger.Info("[fireback.tracker] audit",
		slog.String("event_type", "audit.entry"),
		slog.String("resource", entry.Resource),
		slog.String("action", entry.Action),
		slog.String("result", string(entry.Result)),
		slog.String("detail", entry.Detail),
	)
}

// Stats returns an aggregate snapshot.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		ActiveOperations:    len(m.active),
		CompletedOperations: len(m.completed),
		TotalOperations:     len(m.active) + len(m.completed),
		Successful:          m.succeeded,
		Failed:              m.failed,
		AuditEntries:        len(m.audit),
	}

	var total time.Duration
	for _, rec := range m.completed {
		total += rec.Duration
		stats.TotalRecords += rec.Records
	}
	if len(m.completed) > 0 {
		stats.AvgDuration = total / time.Duration(len(m.completed))
	}
	return stats
}

// CompletedOperations returns a copy of the finished-operation history,
// most recent last.
func (m *Memory) CompletedOperations() []OperationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OperationRecord, len(m.completed))
	copy(out, m.completed)
	return out
}

// RecentAudit returns up to limit audit entries, most recent last.
func (m *Memory) RecentAudit(limit int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.audit) {
		limit = len(m.audit)
	}
	out := make([]Entry, limit)
	copy(out, m.audit[len(m.audit)-limit:])
	return out
}

func (m *Memory) finish(op *memOperation) {
	m.mu.Lock()
	delete(m.active, op.record.ID)
	m.completed = append(m.completed, op.record)
	if len(m.completed) > m.cfg.MaxCompletedOperations {
		m.completed = m.completed[len(m.completed)-m.cfg.MaxCompletedOperations:]
	}
	if op.record.Status == StatusFailed {
		m.failed++
	} else {
		m.succeeded++
	}
	m.mu.Unlock()

	m.scope.Timer("operation_duration").Record(op.record.Duration)
	m.scope.Counter("records_processed").Inc(int64(op.record.Records))
	if op.record.Status == StatusFailed {
		m.scope.Counter("operations_failed").Inc(1)
	} else {
		m.scope.Counter("operations_completed").Inc(1)
	}
}

type memOperation struct {
	tracker *Memory
	mu      sync.Mutex
	record  OperationRecord
	done    bool
}

func (op *memOperation) ID() string {
	return op.record.ID
}

func (op *memOperation) Progress(records uint64) {
	op.mu.Lock()
	op.record.Records = records
	op.mu.Unlock()
}

func (op *memOperation) Complete() {
	op.end(StatusCompleted, nil)
}

func (op *memOperation) Fail(err error) {
	op.end(StatusFailed, err)
}

func (op *memOperation) end(status Status, err error) {
	op.mu.Lock()
	if op.done {
		op.mu.Unlock()
		return
	}
	op.done = true
	op.record.EndedAt = time.Now()
	op.record.Duration = op.record.EndedAt.Sub(op.record.StartedAt)
	op.record.Status = status
	if err != nil {
		op.record.Error = err.Error()
	}
	op.mu.Unlock()

	op.tracker.finish(op)
	op.tracker.logger.Info("[fireback.tracker] operation finished",
		slog.String("event_type", "operation.finished"),
		slog.String("operation_id", op.record.ID),
		slog.String("operation", op.record.Name),
		slog.String("status", string(status)),
		slog.Uint64("records", op.record.Records),
		slog.Duration("duration", op.record.Duration),
	)
}
