package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"resume-processor/internal/shared/util"
)

const keyPrefix = "ratelimit:"

// slidingWindowScript prunes, counts and conditionally records a hit in one round trip.
// Returns {allowed, remaining, resetMs}.
var slidingWindowScript = redis.NewScript(`
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	redis.call("zremrangebyscore", KEYS[1], "-inf", now - window)
	local count = redis.call("zcard", KEYS[1])
	local allowed = 0
	if count < limit then
		redis.call("zadd", KEYS[1], now, ARGV[4])
		redis.call("pexpire", KEYS[1], window)
		count = count + 1
		allowed = 1
	end
	local reset = window
	local oldest = redis.call("zrange", KEYS[1], 0, 0, "WITHSCORES")
	if oldest[2] then
		reset = tonumber(oldest[2]) + window - now
	end
	local remaining = limit - count
	if remaining < 0 then
		remaining = 0
	end
	return {allowed, remaining, reset}
`)

// Redis is a Limiter shared by every instance pointing at the same Redis.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis constructs a Redis-backed limiter.
func NewRedis(client *redis.Client, limit int, window time.Duration, now func() time.Time) *Redis {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, limit: limit, window: window, now: now}
}

// Check runs the sliding-window script for the client.
func (r *Redis) Check(ctx context.Context, clientID string) (Decision, error) {
	nowMs := r.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.client, []string{r.key(clientID)},
		nowMs, r.window.Milliseconds(), r.limit, member).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit script: unexpected reply %v", res)
	}
	return Decision{
		Allowed:      res[0] == 1,
		Limit:        r.limit,
		Remaining:    int(res[1]),
		ResetSeconds: resetSeconds(time.Duration(res[2]) * time.Millisecond),
	}, nil
}

// Tracked counts client keys. Keys expire one window after their last hit.
func (r *Redis) Tracked(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("ratelimit scan: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (r *Redis) key(clientID string) string {
	return keyPrefix + util.HashKey(clientID)
}

var _ Limiter = (*Redis)(nil)
