package ports

import (
	"context"

	"uniscan/domain/analysis"
)

// AnalysisRepository defines the storage operations for completed analyses
type AnalysisRepository interface {
	// Create stores a completed analysis and returns it with its assigned ID
	Create(ctx context.Context, rec *analysis.Record) (*analysis.Record, error)

	// GetByID retrieves an analysis; core.ErrAnalysisNotFound when missing
	GetByID(ctx context.Context, id int64) (*analysis.Record, error)

	// List returns summaries most recent first, optionally limited
	List(ctx context.Context, limit int) ([]analysis.Summary, error)

	// Delete removes an analysis; core.ErrAnalysisNotFound when missing
	Delete(ctx context.Context, id int64) error

	// UpdateEmail overwrites the generated email and nothing else
	UpdateEmail(ctx context.Context, id int64, email []byte) error
}
