package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tableizer/api/internal/config"
)

// ObjectStore adapts the remote blob service. Objects are keyed by image
// token plus filename (see keys.go) and retrievable without auth at their
// public URLs.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.Bucket, s.cfg.MirrorBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// Put uploads an object and returns its public retrieval URL.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL builds the unauthenticated retrieval URL for a key.
func (s *ObjectStore) PublicURL(key string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, key)
}

// Mirror copies an object server-side into the mirror bucket. The copy is
// redundancy only and never correctness-critical.
func (s *ObjectStore) Mirror(ctx context.Context, key string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.cfg.MirrorBucket, Object: key},
		minio.CopySrcOptions{Bucket: s.cfg.Bucket, Object: key},
	)
	if err != nil {
		return fmt.Errorf("mirror %s: %w", key, err)
	}
	return nil
}

// CopyExample copies the configured sample object into destKey so a fresh
// account has an image to extract from.
func (s *ObjectStore) CopyExample(ctx context.Context, destKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.cfg.Bucket, Object: destKey},
		minio.CopySrcOptions{Bucket: s.cfg.Bucket, Object: s.cfg.ExampleObject},
	)
	if err != nil {
		return fmt.Errorf("copy example to %s: %w", destKey, err)
	}
	return nil
}

// RemoveDerived deletes the four blobs owned by an image. Missing keys are
// not an error; the first real failure is returned.
func (s *ObjectStore) RemoveDerived(ctx context.Context, token, filename string) error {
	for _, key := range DerivedKeys(token, filename) {
		if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}
