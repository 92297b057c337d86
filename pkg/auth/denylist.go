package auth

import (
	"context"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/cache"
)

const denyPrefix = "auth:revoked:"

// Denylist records revoked token ids in a cache store.
type Denylist struct {
	store cache.Store
}

func NewDenylist(store cache.Store) *Denylist {
	return &Denylist{store: store}
}

// Add revokes jti for ttl.
func (d *Denylist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	return d.store.Set(ctx, denyPrefix+jti, true, ttl)
}

// Revoked reports whether jti is on the list.
func (d *Denylist) Revoked(ctx context.Context, jti string) (bool, error) {
	return d.store.Has(ctx, denyPrefix+jti)
}
