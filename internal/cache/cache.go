// Package cache holds the read-through cache port used for assembled
// collections, with an in-memory TTL implementation and a msgpack codec.
package cache

import (
	"context"
	"strconv"
	"time"
)

// DefaultTTL is how long a cached collection lives without being invalidated.
const DefaultTTL = time.Hour

// DefaultPrefix namespaces collection keys.
const DefaultPrefix = "collection"

// Cache is the interface for caching assembled collections.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// Key builds the cache key of a collection: prefix:tenantID:name.
func Key(prefix string, tenantID int64, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + strconv.FormatInt(tenantID, 10) + ":" + name
}

// TenantPrefix is the key prefix covering every collection of a tenant.
func TenantPrefix(prefix string, tenantID int64) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + strconv.FormatInt(tenantID, 10) + ":"
}
