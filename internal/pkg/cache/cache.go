package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache connects to the Redis compatible server named by CACHE_HOST
// and CACHE_PORT. A failed ping only logs; callers degrade per feature.
func SetupCache() {
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: cache not reachable at %s: %v", client.Options().Addr, err)
		return
	}
	log.Printf("Connected to cache at %s", client.Options().Addr)
}

// GetClient returns the shared client, connecting on first use.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// SetJSON marshals value and stores it under key.
func SetJSON(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	return GetClient().Set(ctx, key, data, expiration).Err()
}

// GetJSON loads key into dest. A missing key returns redis.Nil.
func GetJSON(key string, dest any) error {
	raw, err := GetClient().Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value %s: %w", key, err)
	}
	return nil
}

func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
