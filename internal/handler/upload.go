package handler

import (
	"context"
	"io"
	"mime"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/apperr"
)

// Uploader stores an uploaded file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error)
}

// UploadHandler serves POST /api/upload.
type UploadHandler struct {
	Uploads Uploader
}

func NewUploadHandler(u Uploader) *UploadHandler {
	return &UploadHandler{Uploads: u}
}

// Upload reads the multipart field "file" and answers 201 {url}.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, "no file uploaded", err)
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "upload failed", err)
	}
	defer f.Close()

	ctype := fh.Header.Get(echo.HeaderContentType)
	if ctype == "" || ctype == echo.MIMEOctetStream {
		ctype = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}

	url, err := h.Uploads.Upload(c.Request().Context(), fh.Filename, ctype, fh.Size, f)
	if err != nil {
		return err
	}
	return created(c, echo.Map{"url": url})
}
