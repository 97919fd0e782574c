// Package storage keeps uploaded photos in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"audiovault/internal/config"
	"audiovault/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrDisabled is returned by the disabled store used when no object store is configured.
var ErrDisabled = errors.New("object storage is not configured")

// ObjectStore saves and removes binary objects addressed by absolute URL.
type ObjectStore interface {
	Put(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
	// ObjectName reports the object a URL addresses, or false when the URL
	// lies outside the store.
	ObjectName(url string) (string, bool)
}

// MinioStore is an ObjectStore backed by MinIO or any S3-compatible service.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to the configured endpoint and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	if cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" {
		return nil, ErrDisabled
	}

	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.StorageBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.StorageBucket, err)
		}
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.StorageBucket,
		baseURL: PublicBaseURL(cfg),
	}, nil
}

// PublicBaseURL is the prefix every stored object URL starts with.
func PublicBaseURL(cfg *config.Config) string {
	if cfg.StoragePublicURL != "" {
		return strings.TrimSuffix(cfg.StoragePublicURL, "/")
	}
	scheme := "http"
	if cfg.StorageUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.StorageEndpoint, cfg.StorageBucket)
}

// Put uploads r under objectName and returns its absolute URL.
func (s *MinioStore) Put(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (url string, err error) {
	ctx, span := observability.StartClientSpan(ctx, "object_store", "put")
	defer func() {
		observability.StorageOperations.WithLabelValues("put", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	_, err = s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
		UserMetadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return s.baseURL + "/" + objectName, nil
}

// Delete removes the object behind url. URLs outside this store are ignored.
func (s *MinioStore) Delete(ctx context.Context, url string) (err error) {
	objectName, ok := ObjectName(s.baseURL, url)
	if !ok {
		return nil
	}

	ctx, span := observability.StartClientSpan(ctx, "object_store", "delete")
	defer func() {
		observability.StorageOperations.WithLabelValues("delete", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if err = s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}

// ObjectName maps url back to its object name in this store.
func (s *MinioStore) ObjectName(url string) (string, bool) {
	return ObjectName(s.baseURL, url)
}

// ObjectName maps an absolute URL under baseURL back to its object name.
func ObjectName(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// Disabled rejects every upload. It stands in when no credentials are configured.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Delete(context.Context, string) error { return nil }

func (Disabled) ObjectName(string) (string, bool) { return "", false }
