// Package storage holds the image blob stores and the upload gate in
// front of them. Files are written once under a generated key; nothing
// ever deletes a prior file when an image is replaced, so orphaned
// blobs are a documented cost of the design.
package storage

import (
	"context"
	"io"
)

// BlobStore persists raw upload bytes under a key and resolves the
// public URL for a stored key.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(key string) string
}
