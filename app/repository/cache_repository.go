package repository

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRepository inspects and prunes the Redis keys the app caches under.
type CacheRepository interface {
	FindKeysByPatterns(ctx context.Context, patterns []string) ([]string, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	DeleteKeys(ctx context.Context, keys []string) (int64, error)
}

// cacheRepository implements the CacheRepository interface
type cacheRepository struct {
	client *redis.Client
}

// NewCacheRepository creates a cache repository on client
func NewCacheRepository(client *redis.Client) CacheRepository {
	return &cacheRepository{client: client}
}

// FindKeysByPatterns retrieves keys for the provided Redis match patterns using SCAN.
func (r *cacheRepository) FindKeysByPatterns(ctx context.Context, patterns []string) ([]string, error) {
	uniqueKeys := make(map[string]struct{})

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		var cursor uint64
		for {
			keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 500).Result()
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				uniqueKeys[key] = struct{}{}
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
	}

	keys := make([]string, 0, len(uniqueKeys))
	for key := range uniqueKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetTTL retrieves the time-to-live for a specific key
func (r *cacheRepository) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return -1, err
	}
	return ttl, nil
}

// DeleteKeys deletes keys in batches and returns the total number of deleted keys.
func (r *cacheRepository) DeleteKeys(ctx context.Context, keys []string) (int64, error) {
	const batchSize = 500
	var totalDeleted int64

	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		deleted, err := r.client.Del(ctx, keys[i:end]...).Result()
		if err != nil {
			return totalDeleted, err
		}
		totalDeleted += deleted
	}
	return totalDeleted, nil
}
