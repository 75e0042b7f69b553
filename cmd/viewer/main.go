package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"uniscan/internal"
	"uniscan/internal/config"
	"uniscan/internal/container"
	"uniscan/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dbConfig, err := config.LoadDatabaseOnly()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := &config.Config{
		Database: *dbConfig,
		Server:   *config.LoadServerOnly(),
		Cache:    *config.LoadCacheOnly(),
	}

	logger := internal.NewDefaultLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	c, err := container.New(cfg, logger)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown(context.Background())

	if err := c.InitHistoryOnly(ctx, db); err != nil {
		logger.Error("failed to initialize viewer", "error", err)
		return
	}

	viewer, err := ui.NewViewer(c.History, logger)
	if err != nil {
		logger.Error("failed to create viewer", "error", err)
		return
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.ViewerPort,
		Handler:           viewer,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting report viewer", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("viewer stopped", "error", err)
	}
}
