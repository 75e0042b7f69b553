package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"uniscan/internal"
	"uniscan/internal/config"
	"uniscan/internal/container"
	"uniscan/internal/errors"
	"uniscan/internal/migration"
	"uniscan/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase opens the PostgreSQL connection and brings the schema up to date
func initDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := internal.NewLogger(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return
	}

	appContainer, err := container.New(cfg, logger)
	if err != nil {
		db.Close()
		logger.Error("failed to create application container", "error", err)
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := appContainer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := appContainer.InitWithDatabase(ctx, db); err != nil {
		logger.Error("failed to initialize container", "error", err)
		return
	}
	appContainer.StartSweeper(time.Minute)

	server, err := ui.NewServer(appContainer)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return
	}
	if err := server.Start(ctx, ":"+cfg.Server.Port); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
