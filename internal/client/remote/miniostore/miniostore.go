// Package miniostore is a remote.ObjectStore backed by a MinIO bucket.
package miniostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rentsaathi/listingsync/internal/logging"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL overrides the endpoint-derived prefix of object references.
	PublicBaseURL string
}

type bucketClient interface {
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Store struct {
	client  bucketClient
	bucket  string
	baseURL string
	log     logging.Logger
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, c Config, log logging.Logger) (*Store, error) {
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("miniostore: client for %s: %w", c.Endpoint, err)
	}

	base := c.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + c.Bucket
	}

	s := newStore(client, c.Bucket, base, log)
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(client bucketClient, bucket, baseURL string, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("bucket", bucket),
	}
}

func (s *Store) ensureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err == nil {
		s.log.Info(ctx, "bucket created")
		return nil
	}
	exists, existsErr := s.client.BucketExists(ctx, s.bucket)
	if existsErr == nil && exists {
		return nil
	}
	if existsErr != nil {
		return fmt.Errorf("miniostore: make bucket %s: %w (exists check: %v)", s.bucket, err, existsErr)
	}
	return fmt.Errorf("miniostore: make bucket %s: %w", s.bucket, err)
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("miniostore: put %s: %w", key, err)
	}
	s.log.Debug(ctx, "object stored", "key", info.Key, "size", info.Size)
	return nil
}

func (s *Store) URL(_ context.Context, key string) (string, error) {
	return s.baseURL + "/" + key, nil
}
