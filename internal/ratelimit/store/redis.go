package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sowell/internal/ratelimit/models"
)

// slidingWindow trims the sorted set to the window, then admits the request
// when there is room. Returns {allowed, remaining, oldest score in ms}.
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
if count >= limit then
  return {0, 0, first}
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, limit - count - 1, first}
`)

// RedisStore keeps sliding windows in Redis sorted sets so every instance
// shares the same limits.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRedis(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Allow(ctx context.Context, key string, p models.Policy) (*models.Result, error) {
	now := s.now()
	res, err := slidingWindow.Run(ctx, s.client, []string{key},
		now.UnixMilli(), p.Window.Milliseconds(), p.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	return &models.Result{
		Allowed:   res[0] == 1,
		Limit:     p.Limit,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).Add(p.Window),
	}, nil
}
