package repository

import "context"

// ResponseCache stores serialized proxy response bodies. Entries expire
// lazily: a stale entry reads as a miss and is overwritten by the next
// successful fetch. Concurrent writers for the same key converge because
// entries are idempotent derivations of the same upstream data.
type ResponseCache interface {
	// Get returns the cached body for a key, or nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a body under a key with the cache's configured TTL.
	Set(ctx context.Context, key string, body []byte) error
}
