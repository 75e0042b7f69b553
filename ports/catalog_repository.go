package ports

import (
	"context"

	"uniscan/domain/catalog"
)

// CatalogRepository reads subjects, frameworks and manuals
type CatalogRepository interface {
	// ListSubjects returns every subject ordered by name
	ListSubjects(ctx context.Context) ([]catalog.Subject, error)

	// GetSubject retrieves a subject; core.ErrSubjectNotFound when missing
	GetSubject(ctx context.Context, id int64) (*catalog.Subject, error)

	// GetActiveFramework returns the active framework of a subject; core.ErrFrameworkNotFound when none
	GetActiveFramework(ctx context.Context, subjectID int64) (*catalog.Framework, error)

	// ListManualsBySubject returns active manuals of a subject. Manuals of
	// publisherFilter are classified as own and listed first.
	ListManualsBySubject(ctx context.Context, subjectID int64, publisherFilter string) ([]catalog.Manual, error)

	// GetManual retrieves a manual; core.ErrManualNotFound when missing
	GetManual(ctx context.Context, id int64) (*catalog.Manual, error)
}

// CatalogWriter seeds and maintains catalog data
type CatalogWriter interface {
	CreateSubject(ctx context.Context, s *catalog.Subject) (*catalog.Subject, error)
	// ActivateFramework stores a framework and makes it the only active one of its subject
	ActivateFramework(ctx context.Context, f *catalog.Framework) (*catalog.Framework, error)
	CreateManual(ctx context.Context, m *catalog.Manual) (*catalog.Manual, error)
}
