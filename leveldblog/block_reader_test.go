package leveldblog_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fireback-io/fireback/leveldblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output-0")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestBlockReader_NonexistentFile(t *testing.T) {
	_, err := leveldblog.NewBlockReader(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBlockReader_EmptyFile(t *testing.T) {
	r, err := leveldblog.NewBlockReader(writeTempFile(t, nil))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint64(0), r.Size())
	_, err = r.Next()
	assert.Equal(t, io.EOF, err, "empty file yields zero blocks, not an error")
}

func TestBlockReader_ExactBlocks(t *testing.T) {
	data := make([]byte, 3*leveldblog.BlockSize)
	for i := range data {
		data[i] = byte(i % 251)
	}

	r, err := leveldblog.NewBlockReader(writeTempFile(t, data))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint64(len(data)), r.Size())

	for i := 0; i < 3; i++ {
		block, err := r.Next()
		require.NoError(t, err, "block %d", i)
		assert.Len(t, block, leveldblog.BlockSize)
		assert.Equal(t, data[i*leveldblog.BlockSize:(i+1)*leveldblog.BlockSize], block)
	}

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBlockReader_ShortFinalBlock(t *testing.T) {
	data := make([]byte, leveldblog.BlockSize+100)

	r, err := leveldblog.NewBlockReader(writeTempFile(t, data))
	require.NoError(t, err)
	defer r.Close()

	block, err := r.Next()
	require.NoError(t, err)
	assert.Len(t, block, leveldblog.BlockSize)

	block, err = r.Next()
	require.NoError(t, err)
	assert.Len(t, block, 100, "final block is truncated to the bytes actually present")

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBlockReader_CustomBlockSize(t *testing.T) {
	data := make([]byte, 64)
	r, err := leveldblog.NewBlockReader(writeTempFile(t, data), leveldblog.WithBlockSize(16))
	require.NoError(t, err)
	defer r.Close()

	var blocks int
	for {
		block, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Len(t, block, 16)
		blocks++
	}
	assert.Equal(t, 4, blocks)
}
