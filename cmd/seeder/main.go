package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/bloghub/posts-service/internal/config"
	"github.com/bloghub/posts-service/internal/storage/postgres"
)

// Seeder runs the schema migration and one-time fixture seed as a standalone
// step, so deployments can prepare the database before the service starts.
type Seeder struct {
	storage *postgres.Postgres
	logger  *slog.Logger
}

func NewSeeder(storage *postgres.Postgres) *Seeder {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &Seeder{
		storage: storage,
		logger:  logger,
	}
}

func (s *Seeder) Run(seedFile string) error {
	startTime := time.Now()

	s.logger.Info("Starting migration and seed")

	if err := s.storage.Migrate(); err != nil {
		s.logger.Error("Migration failed",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return err
	}

	if err := s.storage.SeedFromFile(seedFile); err != nil {
		s.logger.Error("Seed failed",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return err
	}

	s.logger.Info("Migration and seed completed",
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	seeder := NewSeeder(storage)
	if err := seeder.Run(cfg.SeedFile); err != nil {
		os.Exit(1)
	}
}
