package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations are provided by the infrastructure layer (e.g. MinIO, S3).
type ObjectStorage interface {
	// Upload stores an object. size may be -1 when unknown. userMetadata is
	// attached to the object and may be nil.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) error

	// PresignedDownloadURL creates a read-only, time-limited URL for an
	// object. Callers must treat any error as "no link available", never as
	// a request failure: the object write is the authoritative success
	// condition.
	PresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the objects under a key prefix. Used by the orphan sweep.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}
