package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/domain/promoter"
	"uniscan/ports"
)

// CatalogRepository keeps subjects, frameworks and manuals in memory
type CatalogRepository struct {
	mu         sync.RWMutex
	nextID     int64
	subjects   map[int64]catalog.Subject
	frameworks []catalog.Framework
	manuals    map[int64]catalog.Manual
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		subjects: make(map[int64]catalog.Subject),
		manuals:  make(map[int64]catalog.Manual),
	}
}

var (
	_ ports.CatalogRepository = (*CatalogRepository)(nil)
	_ ports.CatalogWriter     = (*CatalogRepository)(nil)
)

func (r *CatalogRepository) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]catalog.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepository) GetSubject(ctx context.Context, id int64) (*catalog.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subjects[id]
	if !ok {
		return nil, core.ErrSubjectNotFound
	}
	return &s, nil
}

// SubjectName returns the name of a subject or ""
func (r *CatalogRepository) SubjectName(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subjects[id].Name
}

func (r *CatalogRepository) GetActiveFramework(ctx context.Context, subjectID int64) (*catalog.Framework, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.frameworks) - 1; i >= 0; i-- {
		f := r.frameworks[i]
		if f.SubjectID == subjectID && f.IsActive {
			return &f, nil
		}
	}
	return nil, core.ErrFrameworkNotFound
}

func (r *CatalogRepository) ListManualsBySubject(ctx context.Context, subjectID int64, publisherFilter string) ([]catalog.Manual, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []catalog.Manual
	for _, m := range r.manuals {
		if m.SubjectID == subjectID && m.IsActive {
			out = append(out, m)
		}
	}
	out = catalog.Classify(out, publisherFilter)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type == catalog.ManualTypeOwn
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out, nil
}

func (r *CatalogRepository) GetManual(ctx context.Context, id int64) (*catalog.Manual, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.manuals[id]
	if !ok {
		return nil, core.ErrManualNotFound
	}
	return &m, nil
}

func (r *CatalogRepository) CreateSubject(ctx context.Context, s *catalog.Subject) (*catalog.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.subjects {
		if existing.Name == s.Name {
			existing.Description = s.Description
			r.subjects[id] = existing
			return &existing, nil
		}
	}
	out := *s
	out.ID = r.id()
	r.subjects[out.ID] = out
	return &out, nil
}

func (r *CatalogRepository) ActivateFramework(ctx context.Context, f *catalog.Framework) (*catalog.Framework, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.frameworks {
		if r.frameworks[i].SubjectID == f.SubjectID {
			r.frameworks[i].IsActive = false
		}
	}
	out := *f
	out.ID = r.id()
	out.IsActive = true
	r.frameworks = append(r.frameworks, out)
	return &out, nil
}

func (r *CatalogRepository) CreateManual(ctx context.Context, m *catalog.Manual) (*catalog.Manual, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := *m
	out.ID = r.id()
	out.IsActive = true
	r.manuals[out.ID] = out
	return &out, nil
}

// PromoterRepository holds the single promoter profile
type PromoterRepository struct {
	mu      sync.RWMutex
	profile *promoter.Profile
}

func NewPromoterRepository() *PromoterRepository {
	return &PromoterRepository{}
}

var _ ports.PromoterRepository = (*PromoterRepository)(nil)

func (r *PromoterRepository) Get(ctx context.Context) (*promoter.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.profile == nil {
		return nil, core.ErrProfileNotFound
	}
	p := *r.profile
	return &p, nil
}

func (r *PromoterRepository) Upsert(ctx context.Context, p *promoter.Profile) (*promoter.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	stored.ID = 1
	r.profile = &stored
	out := stored
	return &out, nil
}
