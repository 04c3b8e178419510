package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoBackupFile is returned when a directory holds no regular files.
var ErrNoBackupFile = errors.New("no backup file found")

// preferredShard is the first output shard of a Firestore export.
const preferredShard = "output-0"

// ResolveBackupFile maps a user-supplied path to the file to parse.
// A regular file resolves to itself. A directory is walked depth
// first: a file named output-0 wins, otherwise the first regular file
// encountered is used.
func ResolveBackupFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("resolve backup %q: %w", path, err)
	}
	if info.Mode().IsRegular() {
		return path, nil
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolve backup %q: not a regular file or directory", path)
	}

	var first string
	errFound := errors.New("found")

	var preferred string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if d.Name() == preferredShard {
			preferred = p
			return errFound
		}
		if first == "" {
			first = p
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("resolve backup %q: %w", path, err)
	}

	switch {
	case preferred != "":
		return preferred, nil
	case first != "":
		return first, nil
	default:
		return "", fmt.Errorf("resolve backup %q: %w", path, ErrNoBackupFile)
	}
}
