// Package cache provides a small JSON key/value store with TTLs.
//
// Two implementations exist: RedisStore for deployments with Redis, and
// MemoryStore as the in-process fallback when Redis is not configured or not
// reachable. Callers depend on the Store interface only.
package cache

import (
	"context"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

// Store is a key/value cache. Values are JSON-encoded.
type Store interface {
	// Get decodes the value under key into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key. A ttl of zero keeps it until deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Has reports whether key is present and not expired.
	Has(ctx context.Context, key string) (bool, error)
	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
}

func record(driver string, hit bool) {
	if hit {
		metrics.CacheHits.WithLabelValues(driver).Inc()
		return
	}
	metrics.CacheMisses.WithLabelValues(driver).Inc()
}
