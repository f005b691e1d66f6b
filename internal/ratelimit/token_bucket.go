// Package ratelimit gates a session's command rate with a Redis-backed
// token bucket. This is a boundary concern, not part of the matching
// core: a session's Start request is checked once before its commands
// ever reach the ring buffer, the same way the original server checked
// would_exceed_limit before accepting a websocket session.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rishav/order-matching-engine/internal/apperr"
)

// TokenBucket implements a token bucket rate limiter backed by Redis,
// atomic across instances via a Lua script.
type TokenBucket struct {
	client     redis.Cmdable
	bucketSize int64
	refillRate float64 // tokens per second
}

// Result contains the rate limiting decision and metadata.
type Result struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	RetryAfter time.Duration
}

// Lua script for atomic token bucket operations: prevents races by
// doing the read-modify-write as a single atomic step inside Redis.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local bucket_size = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local tokens = tonumber(redis.call('HGET', key, 'tokens'))
local last_refill = tonumber(redis.call('HGET', key, 'last_refill'))

if tokens == nil then
    tokens = bucket_size
    last_refill = now
end

local elapsed = now - last_refill
local tokens_to_add = elapsed * refill_rate
tokens = math.min(bucket_size, tokens + tokens_to_add)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

local retry_after = 0
if allowed == 0 then
    retry_after = math.ceil((1 - tokens) / refill_rate)
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('EXPIRE', key, 3600)

return {allowed, math.floor(tokens), retry_after}
`)

// NewTokenBucket creates a new token bucket rate limiter. client can be
// either *redis.Client (standalone) or *redis.ClusterClient (cluster
// mode).
func NewTokenBucket(client redis.Cmdable, bucketSize int64, refillRate float64) *TokenBucket {
	return &TokenBucket{client: client, bucketSize: bucketSize, refillRate: refillRate}
}

// Allow checks whether a session identified by key may start another
// command batch.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)

	result, err := tokenBucketScript.Run(ctx, tb.client, []string{key},
		tb.bucketSize,
		tb.refillRate,
		now,
	).Int64Slice()
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:    result[0] == 1,
		Remaining:  result[1],
		Limit:      tb.bucketSize,
		RetryAfter: time.Duration(result[2]) * time.Second,
	}, nil
}

// CheckOrError is a convenience wrapper for session call sites: it
// returns apperr.ErrRateLimitExceeded (with RetryAfter attached) when
// the bucket is empty, nil otherwise.
func (tb *TokenBucket) CheckOrError(ctx context.Context, key string) error {
	result, err := tb.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return apperr.ErrRateLimitExceeded.WithDetail("retry_after", result.RetryAfter)
	}
	return nil
}

// IsHealthy checks if the Redis connection is working.
func (tb *TokenBucket) IsHealthy(ctx context.Context) bool {
	return tb.client.Ping(ctx).Err() == nil
}
