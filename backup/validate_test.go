package backup_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireback-io/fireback/backup"
	"github.com/fireback-io/fireback/leveldblog"
)

func TestValidate_IntactLogFile(t *testing.T) {
	var buf bytes.Buffer
	appendLogRecord(&buf, leveldblog.RecordFull, userDoc("u1", 30))
	appendLogRecord(&buf, leveldblog.RecordFull, userDoc("u2", 41))
	padToBlock(&buf)
	path := writeBackup(t, buf.Bytes())

	report, err := backup.NewValidator().Validate(path)
	require.NoError(t, err)

	assert.Equal(t, backup.FormatLevelDBLog, report.Format)
	assert.Equal(t, 1, report.BlocksScanned)
	assert.Equal(t, 2, report.RecordsScanned)
	assert.Zero(t, report.CorruptRecords)
	assert.InDelta(t, 1.0, report.IntegrityScore, 1e-9)
	assert.Empty(t, report.Warnings)
}

func TestValidate_CorruptionLowersScore(t *testing.T) {
	var buf bytes.Buffer
	appendLogRecord(&buf, leveldblog.RecordFull, userDoc("u1", 30))
	buf.Write(bytes.Repeat([]byte{0xAB}, 200))
	padToBlock(&buf)
	path := writeBackup(t, buf.Bytes())

	report, err := backup.NewValidator().Validate(path)
	require.NoError(t, err)

	assert.Less(t, report.IntegrityScore, 0.9)
	assert.NotEmpty(t, report.Warnings)
}

func TestValidate_SmallFileWarning(t *testing.T) {
	path := writeBackup(t, []byte("tiny"))

	report, err := backup.NewValidator().Validate(path)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Warnings)
}

func TestValidate_JSONLines(t *testing.T) {
	lines := []byte(
		string(userDoc("u1", 30)) + "\n" +
			string(userDoc("u2", 41)) + "\n" +
			string(userDoc("u3", 52)) + "\n" +
			"{broken line}\n")
	path := writeBackup(t, lines)

	report, err := backup.NewValidator().Validate(path)
	require.NoError(t, err)

	assert.Equal(t, backup.FormatJSONLines, report.Format)
	assert.Equal(t, 4, report.RecordsScanned)
	assert.Equal(t, 1, report.CorruptRecords)
	assert.InDelta(t, 0.75, report.IntegrityScore, 1e-9)
}

func TestValidate_ProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	appendLogRecord(&buf, leveldblog.RecordFull, userDoc("u1", 30))
	padToBlock(&buf)
	appendLogRecord(&buf, leveldblog.RecordFull, userDoc("u2", 41))
	padToBlock(&buf)
	path := writeBackup(t, buf.Bytes())

	var calls, lastTotal int
	v := backup.NewValidator(backup.WithProgress(func(scanned, total int) {
		calls++
		lastTotal = total
	}))

	report, err := v.Validate(path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BlocksScanned)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, lastTotal)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := backup.NewValidator().Validate(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}

func TestValidate_EmptyFile(t *testing.T) {
	path := writeBackup(t, nil)

	report, err := backup.NewValidator().Validate(path)
	require.NoError(t, err)
	assert.Zero(t, report.BlocksScanned)
	assert.NotEmpty(t, report.Warnings)
	assert.InDelta(t, 1.0, report.IntegrityScore, 1e-9)
}
