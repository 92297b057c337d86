package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/cache"
)

type product struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryStore()

	require.NoError(t, s.Set(ctx, "p:1", product{ID: 1, Name: "Yerba"}, time.Minute))

	var got product
	hit, err := s.Get(ctx, "p:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Yerba", got.Name)

	require.NoError(t, s.Del(ctx, "p:1", "missing"))
	hit, err = s.Get(ctx, "p:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := cache.NewMemoryStoreWithClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "short", true, time.Second))
	require.NoError(t, s.Set(ctx, "forever", true, 0))

	has, _ := s.Has(ctx, "short")
	assert.True(t, has)

	now = now.Add(2 * time.Second)

	has, _ = s.Has(ctx, "short")
	assert.False(t, has, "entry should expire")
	has, _ = s.Has(ctx, "forever")
	assert.True(t, has, "zero ttl never expires")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}
