package fileutil

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// MaxFileSize is the maximum file size we'll read (10MB).
// The root Claude config can grow large on long-lived installs, so the limit
// is generous; it exists to prevent memory exhaustion from runaway files.
const MaxFileSize = 10 * 1024 * 1024

// ErrFileTooLarge indicates that a file exceeded MaxFileSize.
var ErrFileTooLarge = errors.Newf("file exceeds maximum size of %d bytes", MaxFileSize)

// ReadFileWithLimit reads a file, refusing anything over MaxFileSize.
// The stat check fails fast on oversized files; the limited reader catches
// files that grow between stat and read.
func ReadFileWithLimit(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	switch {
	case err != nil:
		return nil, errors.Wrap(err, "reading file")
	case len(data) > MaxFileSize:
		return nil, ErrFileTooLarge
	}
	return data, nil
}
