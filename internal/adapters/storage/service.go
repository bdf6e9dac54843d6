// Package storage provides a domain-agnostic interface for S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// StorageService defines the interface for object storage operations.
// Keys are chosen by the caller, so writing the same key twice is an overwrite, not a duplicate.
type StorageService interface {
	// PutObject uploads reader under the exact key given.
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// ObjectExists reports whether key is present in bucket.
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateContentType checks if the content type is allowed.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error

	// GetMaxFileSize returns the configured maximum file size in bytes.
	GetMaxFileSize() int64
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
