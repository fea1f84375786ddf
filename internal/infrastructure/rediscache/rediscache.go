// Package rediscache backs the notification pipeline's throttling concerns
// with Redis: the per-user rate limit, the dedup window and the quiet-hours
// batch queue.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
)

// NewClient creates a Redis client and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

const (
	rateLimitPrefix = "notify:rate:"
	dedupPrefix     = "notify:sent:"
	batchPrefix     = "notify:batch:"
	batchUsersKey   = "notify:batch:users"
)

// RateLimiter implements notification.RateLimiter with a fixed hourly window
// per user. The counter is incremented first, so the check is atomic: two
// racing sends cannot both observe the pre-increment value.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// rateLimitScript increments the counter and starts the window TTL in the
// same atomic step. A crash between a bare INCR and its EXPIRE would leave
// a counter that never expires.
var rateLimitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count`)

// NewRateLimiter creates a rate limiter allowing limit sends per window
func NewRateLimiter(rdb *redis.Client, limit int64, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow consumes one send slot for the user
func (l *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := rateLimitPrefix + userID

	count, err := rateLimitScript.Run(ctx, l.rdb, []string{key}, int64(l.window.Seconds())).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to consume rate slot: %w", err)
	}
	return count <= l.limit, nil
}

// Deduper implements notification.Deduper with SET NX under a TTL
type Deduper struct {
	rdb *redis.Client
}

// NewDeduper creates a new Deduper
func NewDeduper(rdb *redis.Client) *Deduper {
	return &Deduper{rdb: rdb}
}

// Reserve marks the key with SET NX; whoever sets it wins the reservation
func (d *Deduper) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	won, err := d.rdb.SetNX(ctx, dedupPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve dedup key: %w", err)
	}
	return won, nil
}

// Release frees the key after a delivery that produced nothing to suppress
func (d *Deduper) Release(ctx context.Context, key string) error {
	if err := d.rdb.Del(ctx, dedupPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release dedup key: %w", err)
	}
	return nil
}

// BatchQueue implements notification.BatchQueue with one Redis list per user
// and a set tracking which users have pending batches.
type BatchQueue struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewBatchQueue creates a new BatchQueue. Entries older than retention are
// dropped unread if never drained.
func NewBatchQueue(rdb *redis.Client, retention time.Duration) *BatchQueue {
	if retention <= 0 {
		retention = time.Hour
	}
	return &BatchQueue{rdb: rdb, retention: retention}
}

// Enqueue appends the intent to the user's pending batch
func (q *BatchQueue) Enqueue(ctx context.Context, intent notification.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	key := batchPrefix + intent.UserID
	pipe := q.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, q.retention)
	pipe.SAdd(ctx, batchUsersKey, intent.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue intent: %w", err)
	}
	return nil
}

// DrainDue pops every pending batch and returns the intents grouped by user
func (q *BatchQueue) DrainDue(ctx context.Context) (map[string][]notification.Intent, error) {
	users, err := q.rdb.SMembers(ctx, batchUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list batch users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	out := make(map[string][]notification.Intent)
	for _, userID := range users {
		key := batchPrefix + userID

		pipe := q.rdb.TxPipeline()
		itemsCmd := pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		pipe.SRem(ctx, batchUsersKey, userID)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to drain batch for %s: %w", userID, err)
		}

		for _, raw := range itemsCmd.Val() {
			var intent notification.Intent
			if err := json.Unmarshal([]byte(raw), &intent); err != nil {
				// A corrupt entry is dropped rather than wedging the drain.
				continue
			}
			out[userID] = append(out[userID], intent)
		}
	}

	return out, nil
}
