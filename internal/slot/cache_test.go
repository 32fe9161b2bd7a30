package slot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAvailabilityCache(client, time.Minute), mr
}

func TestAvailabilityCache(t *testing.T) {
	ctx := context.Background()

	sample := []ReconstructedSlot{
		{Date: "2025-06-02", StartTime: "09:00", EndTime: "10:00", Status: StatusAvailable},
		{Date: "2025-06-02", StartTime: "10:00", EndTime: "11:00", Status: StatusBooked, BookingID: "bk-1"},
	}

	t.Run("round trips a reconstruction", func(t *testing.T) {
		cache, _ := newTestCache(t)

		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		assert.False(t, ok)

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)

		got, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		require.True(t, ok)
		assert.Equal(t, sample, got)
	})

	t.Run("different ranges do not collide", func(t *testing.T) {
		cache, _ := newTestCache(t)

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)

		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-08")
		assert.False(t, ok)
	})

	t.Run("invalidate makes subsequent reads miss", func(t *testing.T) {
		cache, _ := newTestCache(t)

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)
		cache.Invalidate(ctx, "venue-1")

		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		assert.False(t, ok)
	})

	t.Run("invalidation is scoped to one venue", func(t *testing.T) {
		cache, _ := newTestCache(t)

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)
		cache.Set(ctx, "venue-2", "2025-06-02", "2025-06-02", sample)
		cache.Invalidate(ctx, "venue-1")

		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		assert.False(t, ok)
		_, ok = cache.Get(ctx, "venue-2", "2025-06-02", "2025-06-02")
		assert.True(t, ok)
	})

	t.Run("entries age out with the TTL", func(t *testing.T) {
		cache, mr := newTestCache(t)

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)
		mr.FastForward(2 * time.Minute)

		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		assert.False(t, ok)
	})

	t.Run("nil cache is a silent no-op", func(t *testing.T) {
		var cache *AvailabilityCache

		cache.Set(ctx, "venue-1", "2025-06-02", "2025-06-02", sample)
		cache.Invalidate(ctx, "venue-1")
		_, ok := cache.Get(ctx, "venue-1", "2025-06-02", "2025-06-02")
		assert.False(t, ok)
	})
}
