package leveldblog

import (
	"fmt"
	"io"
	"os"
)

// BlockReader yields the ordered sequence of raw blocks covering a
// backup file. Blocks are BlockSize bytes except the final one, which
// is truncated to whatever the file actually holds. All failures here
// are I/O level and abort the whole parse.
type BlockReader struct {
	fd        *os.File
	path      string
	size      uint64
	blockSize int
	nextBlock int64
}

// Option configures a BlockReader.
type Option func(*BlockReader)

// WithBlockSize overrides the default block size. Intended for tests;
// real backup files always use BlockSize.
func WithBlockSize(size int) Option {
	return func(r *BlockReader) {
		r.blockSize = size
	}
}

// NewBlockReader opens the backup file and stats its length.
func NewBlockReader(path string, opts ...Option) (*BlockReader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file %s: %w", path, err)
	}

	stat, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("stat backup file %s: %w", path, err)
	}

	r := &BlockReader{
		fd:        fd,
		path:      path,
		size:      uint64(stat.Size()),
		blockSize: BlockSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Size returns the total file length in bytes.
func (r *BlockReader) Size() uint64 {
	return r.size
}

// Path returns the backing file path.
func (r *BlockReader) Path() string {
	return r.path
}

// Next reads the next block. It returns io.EOF after the final block;
// an empty file yields io.EOF on the first call. Any seek or read
// failure is fatal.
func (r *BlockReader) Next() ([]byte, error) {
	offset := r.nextBlock * int64(r.blockSize)
	if uint64(offset) >= r.size {
		return nil, io.EOF
	}

	if _, err := r.fd.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to block %d in %s: %w", r.nextBlock, r.path, err)
	}

	block := make([]byte, r.blockSize)
	n, err := io.ReadFull(r.fd, block)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		// Short final block.
		block = block[:n]
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("read block %d from %s: %w", r.nextBlock, r.path, err)
	}

	r.nextBlock++
	return block, nil
}

// Close releases the underlying file descriptor.
func (r *BlockReader) Close() error {
	return r.fd.Close()
}
