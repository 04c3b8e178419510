package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fireback-io/fireback/backup"
)

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestResolveBackupFile_RegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.bin")
	mustWrite(t, path, []byte("data"))

	got, err := backup.ResolveBackupFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolveBackupFile_PrefersOutputZero(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "all_namespaces", "kind_users", "output-1"), []byte("b"))
	mustWrite(t, filepath.Join(dir, "all_namespaces", "kind_users", "output-0"), []byte("a"))

	got, err := backup.ResolveBackupFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "output-0", filepath.Base(got))
}

func TestResolveBackupFile_FallsBackToFirstFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "export.metadata"), []byte("m"))

	got, err := backup.ResolveBackupFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "export.metadata"), got)
}

func TestResolveBackupFile_EmptyDir(t *testing.T) {
	_, err := backup.ResolveBackupFile(t.TempDir())
	assert.ErrorIs(t, err, backup.ErrNoBackupFile)
}

func TestResolveBackupFile_Missing(t *testing.T) {
	_, err := backup.ResolveBackupFile(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
