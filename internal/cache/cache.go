package cache

import (
	"context"
	"time"
)

// Cache defines the keyed value cache consulted before the document store on
// every read path. It is never authoritative; staleness is bounded by TTL and
// writers must invalidate affected keys before returning success.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix removes every key starting with prefix. It need not be
	// atomic; callers tolerate brief staleness between batches.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
