package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Small seam over *minio.Client so tests can fake the object API.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioStore keeps image blobs in a MinIO bucket, created at startup
// when missing.
type MinioStore struct {
	api     minioAPI
	bucket  string
	baseURL string
}

func NewMinioStore(ctx context.Context, client *minio.Client, bucket, baseURL string) (*MinioStore, error) {
	return newMinioStoreWithAPI(ctx, client, bucket, baseURL)
}

func newMinioStoreWithAPI(ctx context.Context, api minioAPI, bucket, baseURL string) (*MinioStore, error) {
	s := &MinioStore{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	exists, err := api.BucketExists(ctx, bucket)

	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}

	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return s, nil
}

func (s *MinioStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})

	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s *MinioStore) URL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}
