package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalURLPrefix is where the HTTP server exposes the local upload directory.
const LocalURLPrefix = "/uploads"

// Local stores files in a directory on disk.
type Local struct {
	dir string
}

// NewLocal creates dir when missing.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// Put writes r to <dir>/<key>. The file is written to a temporary name
// first so a failed copy never leaves a partial file behind.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) (string, error) {
	if key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, key)); err != nil {
		return "", err
	}
	return LocalURLPrefix + "/" + key, nil
}
