package counter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       12,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available (%v), skipping counter test", err)
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestFlush_EmptyHashIsNoop(t *testing.T) {
	rdb := testRedis(t)
	db, err := database.OpenMemory()
	require.NoError(t, err)
	assert.NoError(t, Flush(context.Background(), rdb, db))
}

func TestFlush_AppliesIncrements(t *testing.T) {
	rdb := testRedis(t)
	db, err := database.OpenMemory()
	require.NoError(t, err)

	a := &models.Event{Name: "Alpha", Code: "ALPHA1"}
	b := &models.Event{Name: "Beta", Code: "BETA22"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	ctx := context.Background()
	rdb.HIncrBy(ctx, eventViewsKey, fmt.Sprint(a.ID), 3)
	rdb.HIncrBy(ctx, eventViewsKey, fmt.Sprint(b.ID), 1)
	rdb.HSet(ctx, eventViewsKey, "garbage", "x")

	require.NoError(t, Flush(ctx, rdb, db))

	var got models.Event
	require.NoError(t, db.First(&got, a.ID).Error)
	assert.Equal(t, 3, got.ViewCount)
	require.NoError(t, db.First(&got, b.ID).Error)
	assert.Equal(t, 1, got.ViewCount)

	exists, err := rdb.Exists(ctx, eventViewsKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	require.NoError(t, Flush(ctx, rdb, db))
	require.NoError(t, db.First(&got, a.ID).Error)
	assert.Equal(t, 3, got.ViewCount, "a second flush must not double count")
}
