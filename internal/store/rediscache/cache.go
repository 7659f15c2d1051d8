// Package rediscache caches the open-postings read projection. Invariant
// guards never read through this cache; it only serves the listing surface.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"placement-core/internal/domain/internship"
)

const openPostingsKeyPrefix = "postings:open:"

// Cache holds open-postings listings for a short TTL, invalidated on every
// internship mutation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetOpenPostings returns the cached listing for the given day, if present.
func (c *Cache) GetOpenPostings(ctx context.Context, day string) ([]*internship.Internship, bool) {
	val, err := c.client.Get(ctx, openPostingsKeyPrefix+day).Result()
	if err != nil {
		return nil, false
	}
	var out []*internship.Internship
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, false
	}
	return out, true
}

// SetOpenPostings stores the listing for the given day. Cache write
// failures are ignored; the store remains the source of truth.
func (c *Cache) SetOpenPostings(ctx context.Context, day string, postings []*internship.Internship) {
	raw, err := json.Marshal(postings)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, openPostingsKeyPrefix+day, raw, c.ttl).Err()
}

// InvalidateOpenPostings drops the listing for the given day.
func (c *Cache) InvalidateOpenPostings(ctx context.Context, day string) {
	_ = c.client.Del(ctx, openPostingsKeyPrefix+day).Err()
}
