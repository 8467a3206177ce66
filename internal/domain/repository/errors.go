package repository

import "errors"

var (
	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBucketNotConfigured is returned when the upload path has no storage
	// binding at all.
	ErrBucketNotConfigured = errors.New("bucket not configured")

	// ErrObjectNotFound is returned when a stored object cannot be found.
	ErrObjectNotFound = errors.New("object not found")
)
