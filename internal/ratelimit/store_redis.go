package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tokenregistry/pkg/platform/sentinel"
)

// allowScript keeps a sorted set of request times (unix ms) per key. It
// returns {allowed, count, oldest}.
var allowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
local allowed = 0
if count < limit then
	redis.call("ZADD", KEYS[1], now, ARGV[4])
	redis.call("PEXPIRE", KEYS[1], window)
	count = count + 1
	allowed = 1
end
local oldest = now
local first = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
if #first == 2 then
	oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisStore shares windows between every node pointed at the same Redis.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := s.now()
	args := []any{now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString()}
	vals, err := allowScript.Run(ctx, s.client, []string{key}, args...).Int64Slice()
	if err != nil {
		var reply redis.Error
		if errors.As(err, &reply) {
			return nil, fmt.Errorf("rate limit script: %w", err)
		}
		return nil, fmt.Errorf("%w: rate limit store: %w", sentinel.ErrUnavailable, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", vals)
	}
	count := int(vals[1])
	return &Result{
		Allowed:   vals[0] == 1,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   time.UnixMilli(vals[2]).Add(window),
	}, nil
}
