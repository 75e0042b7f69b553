package postgres

import (
	"context"
	"database/sql"
	"errors"

	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/ports"

	"github.com/jmoiron/sqlx"
)

// CatalogRepositoryImpl implements CatalogRepository and CatalogWriter for PostgreSQL
type CatalogRepositoryImpl struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new PostgreSQL catalog repository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepositoryImpl {
	return &CatalogRepositoryImpl{db: db}
}

var (
	_ ports.CatalogRepository = (*CatalogRepositoryImpl)(nil)
	_ ports.CatalogWriter     = (*CatalogRepositoryImpl)(nil)
)

func (r *CatalogRepositoryImpl) ListSubjects(ctx context.Context) ([]catalog.Subject, error) {
	subjects := []catalog.Subject{}
	err := r.db.SelectContext(ctx, &subjects, `
		SELECT id, name, COALESCE(description, '') AS description, created_at
		FROM subjects
		ORDER BY name
	`)
	return subjects, err
}

func (r *CatalogRepositoryImpl) GetSubject(ctx context.Context, id int64) (*catalog.Subject, error) {
	var s catalog.Subject
	err := r.db.GetContext(ctx, &s, `
		SELECT id, name, COALESCE(description, '') AS description, created_at
		FROM subjects WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CatalogRepositoryImpl) GetActiveFramework(ctx context.Context, subjectID int64) (*catalog.Framework, error) {
	var f catalog.Framework
	err := r.db.GetContext(ctx, &f, `
		SELECT id, subject_id, name, content, is_active, created_at
		FROM frameworks
		WHERE subject_id = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrFrameworkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const manualColumns = `id, subject_id, title, COALESCE(author, '') AS author, publisher,
	COALESCE(edition, '') AS edition, COALESCE(year, 0) AS year, COALESCE(index_text, '') AS index_text,
	is_active, created_at`

func (r *CatalogRepositoryImpl) ListManualsBySubject(ctx context.Context, subjectID int64, publisherFilter string) ([]catalog.Manual, error) {
	manuals := []catalog.Manual{}
	err := r.db.SelectContext(ctx, &manuals, `
		SELECT `+manualColumns+`
		FROM manuals
		WHERE subject_id = $1 AND is_active
		ORDER BY (LOWER(publisher) = LOWER($2)) DESC, title
	`, subjectID, publisherFilter)
	if err != nil {
		return nil, err
	}
	return catalog.Classify(manuals, publisherFilter), nil
}

func (r *CatalogRepositoryImpl) GetManual(ctx context.Context, id int64) (*catalog.Manual, error) {
	var m catalog.Manual
	err := r.db.GetContext(ctx, &m, `SELECT `+manualColumns+` FROM manuals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrManualNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CatalogRepositoryImpl) CreateSubject(ctx context.Context, s *catalog.Subject) (*catalog.Subject, error) {
	out := *s
	err := r.db.GetContext(ctx, &out.ID, `
		INSERT INTO subjects (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`, s.Name, s.Description)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivateFramework deactivates the subject's other frameworks in the same transaction
func (r *CatalogRepositoryImpl) ActivateFramework(ctx context.Context, f *catalog.Framework) (*catalog.Framework, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE frameworks SET is_active = false WHERE subject_id = $1`, f.SubjectID); err != nil {
		return nil, err
	}

	out := *f
	out.IsActive = true
	if err := tx.GetContext(ctx, &out.ID, `
		INSERT INTO frameworks (subject_id, name, content, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id
	`, f.SubjectID, f.Name, []byte(f.Content)); err != nil {
		return nil, err
	}
	return &out, tx.Commit()
}

func (r *CatalogRepositoryImpl) CreateManual(ctx context.Context, m *catalog.Manual) (*catalog.Manual, error) {
	out := *m
	err := r.db.GetContext(ctx, &out.ID, `
		INSERT INTO manuals (subject_id, title, author, publisher, edition, year, index_text, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), $7, true)
		RETURNING id
	`, m.SubjectID, m.Title, m.Author, m.Publisher, m.Edition, m.Year, m.IndexText)
	if err != nil {
		return nil, err
	}
	out.IsActive = true
	return &out, nil
}
