package postgres

import (
	"context"
	"database/sql"
	"errors"

	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/ports"

	"github.com/jmoiron/sqlx"
)

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

const analysisColumns = `
	a.id, a.subject_id, COALESCE(s.name, '') AS subject_name, a.program_title, a.program_content,
	a.professor_name, a.university, a.degree_course, a.publisher, a.bibliography,
	a.total_coverage, a.post_it, a.metadata, a.contextual_analysis, a.technical_analysis,
	a.commercial_analysis, COALESCE(a.generated_email, 'null'::jsonb) AS generated_email,
	a.created_at, a.updated_at`

// Create stores a completed analysis in a single statement
func (r *AnalysisRepositoryImpl) Create(ctx context.Context, rec *analysis.Record) (*analysis.Record, error) {
	var emailArg interface{}
	if len(rec.GeneratedEmail) > 0 {
		emailArg = []byte(rec.GeneratedEmail)
	}

	bib := []byte(rec.Bibliography)
	if len(bib) == 0 {
		bib = []byte(`{"alternatives": []}`)
	}

	var created struct {
		ID        int64        `db:"id"`
		CreatedAt sql.NullTime `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO analyses (
			subject_id, program_title, program_content, professor_name, university, degree_course,
			publisher, bibliography, total_coverage, post_it, metadata, contextual_analysis,
			technical_analysis, commercial_analysis, generated_email, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id, created_at
	`, rec.SubjectID, rec.ProgramTitle, rec.ProgramContent, rec.Professor, rec.University, rec.DegreeCourse,
		rec.Publisher, bib, rec.TotalCoverage, rec.PostIt, []byte(rec.Metadata),
		[]byte(rec.ContextualAnalysis), []byte(rec.TechnicalAnalysis), []byte(rec.CommercialAnalysis), emailArg)
	if err != nil {
		return nil, err
	}

	out := *rec
	out.ID = created.ID
	out.CreatedAt = created.CreatedAt.Time
	out.UpdatedAt = created.CreatedAt.Time
	return &out, nil
}

// GetByID retrieves an analysis with its subject name
func (r *AnalysisRepositoryImpl) GetByID(ctx context.Context, id int64) (*analysis.Record, error) {
	var rec analysis.Record
	err := r.db.GetContext(ctx, &rec, `
		SELECT `+analysisColumns+`
		FROM analyses a
		LEFT JOIN subjects s ON s.id = a.subject_id
		WHERE a.id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns analysis summaries most recent first
func (r *AnalysisRepositoryImpl) List(ctx context.Context, limit int) ([]analysis.Summary, error) {
	query := `
		SELECT a.id, COALESCE(s.name, '') AS subject_name, a.program_title, a.university,
			a.professor_name, a.total_coverage, a.post_it, a.created_at
		FROM analyses a
		LEFT JOIN subjects s ON s.id = a.subject_id
		ORDER BY a.created_at DESC, a.id DESC`

	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []analysis.Summary{}
	for rows.Next() {
		var s analysis.Summary
		if err := rows.StructScan(&s); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes an analysis
func (r *AnalysisRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrAnalysisNotFound
	}
	return nil
}

// UpdateEmail overwrites only the generated email column
func (r *AnalysisRepositoryImpl) UpdateEmail(ctx context.Context, id int64, email []byte) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE analyses
		SET generated_email = $2, updated_at = NOW()
		WHERE id = $1
	`, id, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrAnalysisNotFound
	}
	return nil
}
