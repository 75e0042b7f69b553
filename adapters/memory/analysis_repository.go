// Package memory provides in-process implementations of the repository
// ports. They back the test suites and the database-less demo mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/ports"
)

// AnalysisRepository keeps analyses in a map
type AnalysisRepository struct {
	mu       sync.RWMutex
	nextID   int64
	records  map[int64]analysis.Record
	subjects func(id int64) string
	now      func() time.Time
}

// NewAnalysisRepository creates an empty repository. subjectName resolves
// subject names the way the SQL join does; it may be nil.
func NewAnalysisRepository(subjectName func(id int64) string) *AnalysisRepository {
	return &AnalysisRepository{
		records:  make(map[int64]analysis.Record),
		subjects: subjectName,
		now:      time.Now,
	}
}

var _ ports.AnalysisRepository = (*AnalysisRepository)(nil)

func (r *AnalysisRepository) Create(ctx context.Context, rec *analysis.Record) (*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	out := *rec
	out.ID = r.nextID
	out.CreatedAt = r.now()
	out.UpdatedAt = out.CreatedAt
	if r.subjects != nil {
		out.SubjectName = r.subjects(out.SubjectID)
	}
	r.records[out.ID] = out
	return &out, nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id int64) (*analysis.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, core.ErrAnalysisNotFound
	}
	return &rec, nil
}

func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]analysis.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]analysis.Summary, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return core.ErrAnalysisNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *AnalysisRepository) UpdateEmail(ctx context.Context, id int64, email []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return core.ErrAnalysisNotFound
	}
	rec.GeneratedEmail = append([]byte(nil), email...)
	rec.UpdatedAt = r.now()
	r.records[id] = rec
	return nil
}

// Put stores a record verbatim, keeping its ID. Tests use it to plant damaged rows.
func (r *AnalysisRepository) Put(rec analysis.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID > r.nextID {
		r.nextID = rec.ID
	}
	r.records[rec.ID] = rec
}

// Len returns the number of stored analyses
func (r *AnalysisRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
