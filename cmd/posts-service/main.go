package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bloghub/posts-service/internal/cache"
	"github.com/bloghub/posts-service/internal/config"
	"github.com/bloghub/posts-service/internal/events"
	authHandlers "github.com/bloghub/posts-service/internal/http/handlers/auth"
	mediaHandlers "github.com/bloghub/posts-service/internal/http/handlers/media"
	postHandlers "github.com/bloghub/posts-service/internal/http/handlers/posts"
	wsHandlers "github.com/bloghub/posts-service/internal/http/handlers/websocket"
	"github.com/bloghub/posts-service/internal/http/middleware"
	mediaService "github.com/bloghub/posts-service/internal/services/media"
	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/storage/postgres"
	"github.com/bloghub/posts-service/internal/websocket"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// schema migration and one-time seed run before the server listens
	if err := pg.Migrate(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	if err := pg.SeedFromFile(cfg.SeedFile); err != nil {
		log.Fatal("Failed to seed database:", err)
	}

	// redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	var store storage.Storage = cache.NewCacheService(pg, redisClient)

	// live updates hub
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	// rate limiting
	rateLimits := middleware.NewRateLimitConfig(redisClient, cfg)

	// setup server
	router := newRouter(cfg, store, publisher, rateLimits, hub)

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	// image uploads; the service needs object storage to be reachable
	media, err := mediaService.NewService(cfg)
	if err != nil {
		slog.Warn("Media service unavailable, image uploads disabled", slog.String("error", err.Error()))
	} else {
		handlers := mediaHandlers.NewMediaHandlers(media)
		router.Handle("POST /api/media/upload-url", authRequired(handlers.GenerateUploadURL()))
		router.Handle("GET /api/media/{object_key...}", authRequired(handlers.GetMediaInfo()))
	}

	handler := middleware.LoggingMiddleware(
		middleware.CORSMiddleware(cfg.HTTPServer.FrontendURL)(router))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: handler,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

// newRouter builds the route table. The media routes are wired separately in
// main because they depend on object storage being reachable.
func newRouter(cfg *config.Config, store storage.Storage, publisher events.Publisher, rateLimits *middleware.RateLimitConfig, hub *websocket.Hub) *http.ServeMux {
	router := http.NewServeMux()

	// health check on the exact root path only
	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	router.HandleFunc("POST /api/auth/signup", authHandlers.SignUp(store, cfg.JWTSecret))
	router.HandleFunc("POST /api/auth/login", authHandlers.Login(store, cfg.JWTSecret))

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	router.Handle("GET /api/posts", authRequired(postHandlers.GetAll(store)))
	router.Handle("POST /api/posts", authRequired(rateLimits.RateLimitedHandler("posts", postHandlers.Create(store, publisher))))
	router.Handle("DELETE /api/posts", authRequired(postHandlers.DeleteAll(store)))
	router.Handle("POST /api/posts/reset-likes", authRequired(postHandlers.ResetLikes(store, publisher)))
	router.Handle("GET /api/posts/{id}", authRequired(postHandlers.GetByID(store)))
	router.Handle("PUT /api/posts/{id}", authRequired(postHandlers.Update(store)))
	router.Handle("DELETE /api/posts/{id}", authRequired(postHandlers.Delete(store)))
	router.Handle("POST /api/posts/{id}/like", authRequired(rateLimits.RateLimitedHandler("likes", postHandlers.Like(store, publisher))))

	router.HandleFunc("GET /api/ws", wsHandlers.WebSocketHandler(hub, cfg.JWTSecret))

	return router
}
