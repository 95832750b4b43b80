package storage

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/stocklane/stocklane/internal/observability"
)

// MaxImageBytes is the upload size ceiling.
const MaxImageBytes = 2 << 20 // 2 MiB

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image exceeds the size limit")
)

// Uploads validates an attached file and hands the bytes to the blob
// store. Keys are timestamp-prefixed original names, unique enough for
// this write-once pattern.
type Uploads struct {
	store BlobStore
	prom  *observability.Prom
	now   func() time.Time
}

func NewUploads(store BlobStore, prom *observability.Prom) *Uploads {
	return &Uploads{
		store: store,
		prom:  prom,
		now:   time.Now,
	}
}

func (u *Uploads) count(result string) {
	if u.prom != nil {
		u.prom.UploadsTotal.WithLabelValues(result).Inc()
	}
}

// Accept checks the declared content type and size, stores the payload
// and returns the public URL of the stored image.
func (u *Uploads) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")

	if !strings.HasPrefix(contentType, "image/") {
		u.count("rejected")
		return "", ErrNotImage
	}

	if fh.Size > MaxImageBytes {
		u.count("rejected")
		return "", ErrTooLarge
	}

	// Base strips any client-supplied directory parts.
	key := u.now().UTC().Format("20060102150405") + "_" + filepath.Base(fh.Filename)

	f, err := fh.Open()

	if err != nil {
		u.count("failed")
		return "", err
	}

	defer f.Close()

	if err := u.store.Save(ctx, key, f, fh.Size, contentType); err != nil {
		u.count("failed")
		return "", err
	}

	u.count("stored")

	return u.store.URL(key), nil
}
