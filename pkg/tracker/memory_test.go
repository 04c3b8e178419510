package tracker_test

import (
	"errors"
	"testing"

	"github.com/fireback-io/fireback/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_OperationLifecycle(t *testing.T) {
	m := tracker.NewMemory(tracker.DefaultConfig())

	op := m.Start("parse_backup", map[string]string{"file_path": "/x/output-0"})
	require.NotEmpty(t, op.ID())

	op.Progress(10)
	op.Progress(42)
	op.Complete()

	stats := m.Stats()
	assert.Equal(t, 0, stats.ActiveOperations)
	assert.Equal(t, 1, stats.CompletedOperations)
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, uint64(42), stats.TotalRecords)

	recs := m.CompletedOperations()
	require.Len(t, recs, 1)
	assert.Equal(t, "parse_backup", recs[0].Name)
	assert.Equal(t, tracker.StatusCompleted, recs[0].Status)
	assert.Equal(t, "/x/output-0", recs[0].Metadata["file_path"])
}

func TestMemory_FailedOperation(t *testing.T) {
	m := tracker.NewMemory(tracker.DefaultConfig())

	op := m.Start("parse_backup", nil)
	op.Fail(errors.New("checksum mismatch"))

	stats := m.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Successful)

	recs := m.CompletedOperations()
	require.Len(t, recs, 1)
	assert.Equal(t, tracker.StatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].Error, "checksum mismatch")
}

func TestMemory_DoubleCompleteIsIgnored(t *testing.T) {
	m := tracker.NewMemory(tracker.DefaultConfig())

	op := m.Start("parse_backup", nil)
	op.Complete()
	op.Fail(errors.New("too late"))

	stats := m.Stats()
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 0, stats.Failed)
}

func TestMemory_AuditHistoryBounded(t *testing.T) {
	m := tracker.NewMemory(tracker.Config{MaxCompletedOperations: 5, MaxAuditEntries: 3})

	for i := 0; i < 10; i++ {
		m.Audit(tracker.Entry{
			Resource: "backup_file",
			Action:   "parse",
			Result:   tracker.ResultSuccess,
		})
	}

	entries := m.RecentAudit(0)
	assert.Len(t, entries, 3, "audit history must stay within its bound")
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestMemory_RecentAuditLimit(t *testing.T) {
	m := tracker.NewMemory(tracker.DefaultConfig())

	m.Audit(tracker.Entry{Action: "first", Result: tracker.ResultSuccess})
	m.Audit(tracker.Entry{Action: "second", Result: tracker.ResultPartial})
	m.Audit(tracker.Entry{Action: "third", Result: tracker.ResultFailure})

	entries := m.RecentAudit(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Action)
	assert.Equal(t, "third", entries[1].Action)
}
