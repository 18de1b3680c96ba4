// internal/blobstore/store.go
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures a Store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Store uploads and retrieves raw blob content in a MinIO/S3 bucket.
// Uploads are overwrite-idempotent: re-putting the same key replaces the
// object, which is what makes collector retries safe.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates a Store and ensures the bucket exists. Bucket creation is
// attempted only here, never per call.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		logger: logger,
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	s.logger.Info("Created bucket", "bucket", s.bucket)
	return nil
}

// Prefix returns the configured key prefix for this store.
func (s *Store) Prefix() string { return s.prefix }

// Put uploads content under key and returns its locator. Empty content is an
// explicit no-op returning an empty locator; nothing is sent to the store.
// Transient upload failures are retried with exponential backoff.
func (s *Store) Put(ctx context.Context, content []byte, key string) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	op := func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key,
			bytes.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
		return err
	}
	if err := backoff.Retry(op, uploadBackoff(ctx)); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// ListPrefix returns the keys of all objects under prefix.
func (s *Store) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func uploadBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)
}
