package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/internal/pkg/cache"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
)

const eventViewsKey = "event:counters:views"

// AddEventView increments the pending gallery view counter of an event.
// Without Redis the view is dropped.
func AddEventView(eventID uint) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	field := strconv.FormatUint(uint64(eventID), 10)
	return rdb.HIncrBy(context.Background(), eventViewsKey, field, 1).Err()
}

// FlushAll moves the pending counters into the database
func FlushAll() error {
	rdb := cache.GetClient()
	db := database.GetDB()
	if rdb == nil || db == nil {
		return nil
	}
	return Flush(context.Background(), rdb, db)
}

// Flush drains the pending event views from rdb into db.
func Flush(ctx context.Context, rdb *redis.Client, db *gorm.DB) error {
	return flushHashToTable(ctx, rdb, db, eventViewsKey, "events", "view_count")
}

// flushHashToTable drains a Redis hash and applies the increments in one
// batched UPDATE. RENAME moves the hash away atomically so increments that
// arrive during the flush land in a fresh hash.
func flushHashToTable(ctx context.Context, rdb *redis.Client, db *gorm.DB, redisKey, table, column string) error {
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE events SET view_count = view_count + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var b strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	fmt.Fprintf(&b, "UPDATE %s SET %s = %s + CASE id", table, column, column)
	for _, p := range pairs {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	b.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, p.id)
	}
	b.WriteString(")")

	return db.WithContext(ctx).Exec(b.String(), args...).Error
}
