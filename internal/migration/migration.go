package migration

import (
	"context"

	"uniscan/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// Steps are applied in order; every statement is idempotent.
var steps = []step{
	{"subjects table", `
		CREATE TABLE IF NOT EXISTS subjects (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			description TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"frameworks table", `
		CREATE TABLE IF NOT EXISTS frameworks (
			id BIGSERIAL PRIMARY KEY,
			subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			content JSONB NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"manuals table", `
		CREATE TABLE IF NOT EXISTS manuals (
			id BIGSERIAL PRIMARY KEY,
			subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			title VARCHAR(500) NOT NULL,
			author VARCHAR(500),
			publisher VARCHAR(255) NOT NULL,
			edition VARCHAR(100),
			year INTEGER,
			index_text TEXT,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"analyses table", `
		CREATE TABLE IF NOT EXISTS analyses (
			id BIGSERIAL PRIMARY KEY,
			subject_id BIGINT REFERENCES subjects(id) ON DELETE SET NULL,
			program_title VARCHAR(500) NOT NULL,
			program_content TEXT NOT NULL,
			professor_name VARCHAR(255) NOT NULL DEFAULT '',
			university VARCHAR(255) NOT NULL DEFAULT '',
			degree_course VARCHAR(255) NOT NULL DEFAULT '',
			publisher VARCHAR(255) NOT NULL,
			bibliography JSONB NOT NULL DEFAULT '{"alternatives": []}',
			total_coverage DOUBLE PRECISION NOT NULL DEFAULT 0,
			post_it TEXT NOT NULL DEFAULT '',
			metadata JSONB NOT NULL,
			contextual_analysis JSONB NOT NULL,
			technical_analysis JSONB NOT NULL,
			commercial_analysis JSONB NOT NULL,
			generated_email JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"promoter_profiles table", `
		CREATE TABLE IF NOT EXISTS promoter_profiles (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			full_name VARCHAR(255) NOT NULL,
			phone VARCHAR(50) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			territory VARCHAR(255) NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"indexes", `
		CREATE INDEX IF NOT EXISTS idx_frameworks_subject_active ON frameworks(subject_id) WHERE is_active;
		CREATE INDEX IF NOT EXISTS idx_manuals_subject ON manuals(subject_id);
		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC)`},
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrapf(err, "failed to create %s", s.name)
		}
	}
	return nil
}

// Reset drops every table. Used by the migrate tool with --reset.
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{"analyses", "promoter_profiles", "manuals", "frameworks", "subjects"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return errors.Wrapf(err, "failed to drop %s", table)
		}
	}
	return nil
}
