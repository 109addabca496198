package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

const cacheKeyPrefix = "catalog:photos:"

// CacheKeyPattern matches every cached listing.
const CacheKeyPattern = cacheKeyPrefix + "*"

// CachedListing keeps listings in Redis for a short time so repeated logins
// to the same event do not hit the source every time. Cache failures fall
// through to the source.
type CachedListing struct {
	next   PhotoListing
	client *redis.Client
	ttl    time.Duration
}

// NewCachedListing wraps next. A nil client disables caching.
func NewCachedListing(next PhotoListing, client *redis.Client, ttl time.Duration) *CachedListing {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CachedListing{next: next, client: client, ttl: ttl}
}

// GetPhotos implements PhotoListing.
func (c *CachedListing) GetPhotos(ctx context.Context, code string) ([]gallery.Photo, error) {
	if c.client == nil {
		return c.next.GetPhotos(ctx, code)
	}

	key := cacheKeyPrefix + code
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var photos []gallery.Photo
		if jsonErr := json.Unmarshal(raw, &photos); jsonErr == nil {
			return photos, nil
		}
		log.Warnf("[Catalog] Dropping corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Warnf("[Catalog] Cache read failed for %s: %v", key, err)
	}

	photos, err := c.next.GetPhotos(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(photos); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			log.Warnf("[Catalog] Cache write failed for %s: %v", key, setErr)
		}
	}
	return photos, nil
}

// Invalidate drops the cached listing of an event, e.g. after an upload.
func (c *CachedListing) Invalidate(ctx context.Context, code string) {
	Invalidate(ctx, c.client, code)
}

// Invalidate drops the cached listing of code on client.
func Invalidate(ctx context.Context, client *redis.Client, code string) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, cacheKeyPrefix+code).Err(); err != nil {
		log.Warnf("[Catalog] Cache invalidation failed for %s: %v", code, err)
	}
}

// cachedSource pairs a lookup with a cached listing.
type cachedSource struct {
	EventLookup
	*CachedListing
}
