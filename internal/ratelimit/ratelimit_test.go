package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	// Test connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})

	return mr, redisClient
}

func TestTokenBucket_Allow(t *testing.T) {
	_, redisClient := setupTestRedis(t)

	bucket := NewTokenBucket(redisClient, Limit{Action: "posts", Capacity: 5, Refill: 5})

	ctx := context.Background()
	userID := "7"

	// Test that we can consume tokens up to the limit
	for i := 0; i < 5; i++ {
		allowed, err := bucket.Allow(ctx, userID)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	// Test that the 6th request is denied
	allowed, err := bucket.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}

	// Test remaining tokens
	remaining, err := bucket.GetRemaining(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_GetRemaining(t *testing.T) {
	_, redisClient := setupTestRedis(t)

	bucket := NewTokenBucket(redisClient, Limit{Action: "likes", Capacity: 10, Refill: 10})

	ctx := context.Background()
	userID := "8"

	// Initially should have full capacity
	remaining, err := bucket.GetRemaining(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 10 {
		t.Fatalf("Expected 10 remaining tokens, got %d", remaining)
	}

	// Consume 3 tokens
	for i := 0; i < 3; i++ {
		bucket.Allow(ctx, userID)
	}

	// Should have 7 remaining
	remaining, err = bucket.GetRemaining(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 7 {
		t.Fatalf("Expected 7 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_IsolatesActionsAndNamespacesKeys(t *testing.T) {
	mr, redisClient := setupTestRedis(t)

	posts := NewTokenBucket(redisClient, Limit{Action: "posts", Capacity: 1, Refill: 1})
	likes := NewTokenBucket(redisClient, Limit{Action: "likes", Capacity: 1, Refill: 1})

	ctx := context.Background()
	userID := "7"

	if allowed, err := posts.Allow(ctx, userID); err != nil || !allowed {
		t.Fatalf("Expected first posts request to be allowed, got %v %v", allowed, err)
	}
	if allowed, err := posts.Allow(ctx, userID); err != nil || allowed {
		t.Fatalf("Expected second posts request to be denied, got %v %v", allowed, err)
	}

	// Exhausting one action must not touch the other's bucket.
	if allowed, err := likes.Allow(ctx, userID); err != nil || !allowed {
		t.Fatalf("Expected likes request to be allowed, got %v %v", allowed, err)
	}

	for _, key := range []string{
		"posts-service:ratelimit:posts:7",
		"posts-service:ratelimit:likes:7",
	} {
		if !mr.Exists(key) {
			t.Fatalf("Expected bucket key %q in Redis, got keys %v", key, mr.Keys())
		}
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	_, redisClient := setupTestRedis(t)

	bucket := NewTokenBucket(redisClient, Limit{Action: "likes", Capacity: 5, Refill: 5})

	ctx := context.Background()
	userID := "9"

	// Exhaust the bucket
	for i := 0; i < 5; i++ {
		bucket.Allow(ctx, userID)
	}

	allowed, err := bucket.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied before reset")
	}

	if err := bucket.Reset(ctx, userID); err != nil {
		t.Fatalf("Unexpected error resetting bucket: %v", err)
	}

	allowed, err = bucket.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected request to be allowed after reset")
	}
}
