package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache is a short-lived Redis cache for reconstructed
// availability. Keys embed a per-venue generation counter, so invalidation
// is a single INCR and stale entries simply age out with the TTL.
//
// A nil *AvailabilityCache is valid and disables caching.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	if client == nil {
		return nil
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func (c *AvailabilityCache) key(ctx context.Context, venueID, fromDate, toDate string) string {
	gen, err := c.client.Get(ctx, "slots:gen:"+venueID).Int64()
	if err != nil {
		gen = 0
	}
	return fmt.Sprintf("slots:%s:%d:%s:%s", venueID, gen, fromDate, toDate)
}

// Get returns the cached reconstruction for the range, if present.
func (c *AvailabilityCache) Get(ctx context.Context, venueID, fromDate, toDate string) ([]ReconstructedSlot, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(ctx, venueID, fromDate, toDate)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []ReconstructedSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// Set stores the reconstruction for the range.
func (c *AvailabilityCache) Set(ctx context.Context, venueID, fromDate, toDate string, slots []ReconstructedSlot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(ctx, venueID, fromDate, toDate), raw, c.ttl)
}

// Invalidate bumps the venue's generation so subsequent reads miss.
func (c *AvailabilityCache) Invalidate(ctx context.Context, venueID string) {
	if c == nil {
		return
	}
	c.client.Incr(ctx, "slots:gen:"+venueID)
}
