// Package storage persists uploaded files and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cms-backend/internal/config"
)

// Store saves an object under key and returns the URL clients use to fetch it.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// NewKey returns a random object key "<unix-ms>-<uuid><ext>", keeping the
// lowercased extension of the uploaded file name.
func NewKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.New(), ext)
}

// New builds the store selected by c.Target.
func New(ctx context.Context, c config.Storage) (Store, error) {
	switch c.Target {
	case "", "local":
		return NewLocal(c.UploadDir)
	case "s3":
		return NewS3(ctx, c)
	default:
		return nil, fmt.Errorf("unknown storage target: %s", c.Target)
	}
}
