package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	gorillaws "github.com/gorilla/websocket"

	"github.com/bloghub/posts-service/internal/config"
	"github.com/bloghub/posts-service/internal/events"
	"github.com/bloghub/posts-service/internal/http/middleware"
	"github.com/bloghub/posts-service/internal/storage/memory"
	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/utils/jwt"
	"github.com/bloghub/posts-service/internal/websocket"
)

const testSecret = "test_secret"

// newTestHandler wires the real router and middleware chain against the
// in-memory storage and an in-memory Redis.
func newTestHandler(t *testing.T) (http.Handler, *websocket.Hub) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}
	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})

	cfg := &config.Config{
		HTTPServer: config.HTTPServer{FrontendURL: "http://localhost:5173"},
		RateLimits: config.RateLimits{PostsPerMinute: 20, LikesPerMinute: 60},
		JWTSecret:  testSecret,
	}

	store := memory.NewMemory()
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)
	rateLimits := middleware.NewRateLimitConfig(redisClient, cfg)

	router := newRouter(cfg, store, publisher, rateLimits, hub)
	handler := middleware.LoggingMiddleware(
		middleware.CORSMiddleware(cfg.HTTPServer.FrontendURL)(router))

	return handler, hub
}

func TestHealthRouteMatchesRootOnly(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for /, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Fatalf("Expected body %q, got %q", "ok", body)
	}

	// An unregistered path must 404, not fall through to the health check.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 for unknown path, got %d", rec.Code)
	}
}

func TestWebSocketUpgradeThroughMiddleware(t *testing.T) {
	handler, hub := newTestHandler(t)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	token, err := jwt.CreateToken(1, "alice@example.com", testSecret)
	if err != nil {
		t.Fatalf("Unexpected error creating token: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + token
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		var body []byte
		if resp != nil {
			status = resp.StatusCode
			body, _ = io.ReadAll(resp.Body)
		}
		t.Fatalf("Expected upgrade to succeed, got error %v (status %d, body %s)", err, status, body)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && hub.GetClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.GetClientCount() != 1 {
		t.Fatal("Expected the dialed client to be registered with the hub")
	}

	hub.BroadcastAll(types.NewEvent(types.EventPostLiked, types.PostLikedEvent{PostID: 3, Likes: 1, LikedBy: 1}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Unexpected error reading broadcast: %v", err)
	}

	var event types.Event
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("Unexpected error decoding event: %v", err)
	}
	if event.Type != types.EventPostLiked {
		t.Fatalf("Expected event type %q, got %q", types.EventPostLiked, event.Type)
	}
}
