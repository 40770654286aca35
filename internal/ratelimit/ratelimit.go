package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bucket keys are namespaced per service so a shared Redis deployment
// doesn't collide with other tenants.
const keyPrefix = "posts-service:ratelimit"

// Limit is one action's per-user budget. Refill is tokens added per window.
type Limit struct {
	Action   string
	Capacity int64
	Refill   int64
}

// allowScript refills a bucket from elapsed time and consumes one token,
// all inside Redis so concurrent requests can't double-spend.
const allowScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refill = math.floor((elapsed / window) * refill_rate)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

// remainingScript reports the current token count without consuming one.
const remainingScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refill = math.floor((elapsed / window) * refill_rate)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
	end

	return tokens
`

// TokenBucket rate-limits a single action per user, backed by Redis.
type TokenBucket struct {
	redis  *redis.Client
	limit  Limit
	window time.Duration
}

// NewTokenBucket creates a token bucket limiter for one action.
func NewTokenBucket(redisClient *redis.Client, limit Limit) *TokenBucket {
	return &TokenBucket{
		redis:  redisClient,
		limit:  limit,
		window: time.Minute,
	}
}

// Capacity returns the bucket's maximum token count.
func (tb *TokenBucket) Capacity() int64 {
	return tb.limit.Capacity
}

func (tb *TokenBucket) key(userID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tb.limit.Action, userID)
}

func (tb *TokenBucket) eval(ctx context.Context, script, userID string) (int64, error) {
	now := time.Now().Unix()
	result, err := tb.redis.Eval(ctx, script, []string{tb.key(userID)},
		tb.limit.Capacity, tb.limit.Refill, int64(tb.window.Seconds()), now).Result()
	if err != nil {
		return 0, err
	}

	value, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	return value, nil
}

// Allow reports whether the user may perform the action and consumes a token
// when they may.
func (tb *TokenBucket) Allow(ctx context.Context, userID string) (bool, error) {
	allowed, err := tb.eval(ctx, allowScript, userID)
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}

// GetRemaining returns the user's remaining tokens for the action.
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID string) (int64, error) {
	remaining, err := tb.eval(ctx, remainingScript, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return remaining, nil
}

// Reset clears the user's bucket for the action.
func (tb *TokenBucket) Reset(ctx context.Context, userID string) error {
	return tb.redis.Del(ctx, tb.key(userID)).Err()
}
