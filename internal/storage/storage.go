// Package storage resolves a user's S3-compatible object store and issues
// presigned URLs against it. The MinIO client works with any S3-compatible
// provider (MinIO, Ceph, AWS S3, ...), so the user only supplies an endpoint
// and a key pair.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrMissingConfiguration is returned when a user has no object-store configuration.
var ErrMissingConfiguration = errors.New("object storage is not configured")

// Bucket issues presigned URLs for objects inside one user's bucket.
type Bucket interface {
	// PresignUpload returns a PUT URL for objectName valid for expiry.
	PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	// PresignDownload returns a GET URL for objectName valid for expiry.
	PresignDownload(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}
