package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs to a directory that the router serves back
// under /uploads.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(s.dir, key))

	if err != nil {
		return err
	}

	_, err = io.Copy(f, r)

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/uploads/" + key
}
