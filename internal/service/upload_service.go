package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/storage"
)

// UploadService stores images and returns their public URL.
type UploadService struct {
	store    storage.Store
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(store storage.Store, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes, now: time.Now}
}

// Upload stores r under a fresh random key. Only image content types are
// accepted.
func (s *UploadService) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", apperr.New(apperr.InvalidInput, "file too large")
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", apperr.New(apperr.InvalidInput, "only image files can be uploaded")
	}

	url, err := s.store.Put(ctx, storage.NewKey(filename, s.now()), r, size, contentType)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "upload failed", err)
	}
	return url, nil
}
