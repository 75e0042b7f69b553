package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"uniscan/adapters/postgres"
	"uniscan/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [catalog_dir]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema %s ready", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	catalogDir := os.Args[2]

	files, err := migration.FindCatalogFiles(catalogDir)
	if err != nil {
		log.Fatalf("Failed to find catalog files: %v", err)
	}
	log.Printf("Found %d catalog files to import from %s", len(files), catalogDir)

	stats, err := migration.ImportCatalog(ctx, postgres.NewCatalogRepository(db), files, func(path string, err error) {
		log.Printf("Skipping %s: %v", filepath.Base(path), err)
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Import complete: %d subjects, %d frameworks, %d manuals, %d skipped",
		stats.Subjects, stats.Frameworks, stats.Manuals, stats.Skipped)
}
