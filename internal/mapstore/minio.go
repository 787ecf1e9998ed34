package mapstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// MinioStore keeps map images in an S3-compatible bucket. Use it when
// several instances share one map cache; the FSStore is fine for a
// single-node deployment.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig carries the connection settings for an S3-compatible store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("mapstore.NewMinioStore: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("mapstore.NewMinioStore: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("mapstore.NewMinioStore: create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the image under ref.
func (s *MinioStore) Put(ctx context.Context, ref string, data []byte) error {
	if err := validRef(ref); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, ref,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/png"})
	if err != nil {
		return fmt.Errorf("mapstore.MinioStore.Put: %w", err)
	}
	return nil
}

// Open returns a reader over the stored object. GetObject defers its
// errors to the first Read, so a Stat runs first to report a missing
// ref as domain.ErrMapUnavailable up front.
func (s *MinioStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := validRef(ref); err != nil {
		return nil, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("mapstore.MinioStore.Open: %w: %s", domain.ErrMapUnavailable, ref)
		}
		return nil, fmt.Errorf("mapstore.MinioStore.Open: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("mapstore.MinioStore.Open: %w", err)
	}
	return obj, nil
}

// Exists reports whether the object is present in the bucket.
func (s *MinioStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := validRef(ref); err != nil {
		return false, err
	}
	_, err := s.client.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("mapstore.MinioStore.Exists: %w", err)
}
