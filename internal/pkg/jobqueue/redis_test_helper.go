package jobqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

const jobQueueTestRedisDB = 14

// testRedis returns a client on an emptied database reserved for these
// tests, or skips when no Redis answers.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	var lastErr error
	for _, host := range []string{env.GetEnv("CACHE_HOST", "localhost"), "cache", "127.0.0.1"} {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, env.GetEnv("CACHE_PORT", "6379")),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       jobQueueTestRedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr != nil {
			client.Close()
			continue
		}
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			client.Close()
			t.Fatalf("flushing redis db %d: %v", jobQueueTestRedisDB, err)
		}
		t.Cleanup(func() {
			client.FlushDB(context.Background())
			client.Close()
		})
		return client
	}
	t.Skipf("Redis not available (%v), skipping job queue test", lastErr)
	return nil
}
