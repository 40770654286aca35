package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/bloghub/posts-service/internal/config"
	"github.com/bloghub/posts-service/internal/ratelimit"
	"github.com/bloghub/posts-service/internal/utils/response"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig builds the per-action limiters from configuration.
func NewRateLimitConfig(redisClient *redis.Client, cfg *config.Config) *RateLimitConfig {
	rlc := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
	}

	// POST /api/posts
	rlc.limiters["posts"] = ratelimit.NewTokenBucket(redisClient, ratelimit.Limit{
		Action:   "posts",
		Capacity: cfg.RateLimits.PostsPerMinute,
		Refill:   cfg.RateLimits.PostsPerMinute,
	})

	// POST /api/posts/{id}/like
	rlc.limiters["likes"] = ratelimit.NewTokenBucket(redisClient, ratelimit.Limit{
		Action:   "likes",
		Capacity: cfg.RateLimits.LikesPerMinute,
		Refill:   cfg.RateLimits.LikesPerMinute,
	})

	return rlc
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get identity from context (assumes auth middleware ran first)
			identity, ok := GetIdentityFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			// Get the appropriate rate limiter
			limiter, exists := rlc.limiters[action]
			if !exists {
				// If no rate limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			userID := strconv.FormatInt(identity.UserID, 10)

			// Check if user is allowed to perform this action
			allowed, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), userID)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60") // 1 minute window

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}
