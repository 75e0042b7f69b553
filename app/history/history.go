// Package history lists, opens and deletes stored analyses. The listing is
// cached; every write that changes it invalidates the cache.
package history

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/domain/submission"
	"uniscan/internal"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// MsgNotFound is shown when an analysis does not exist (any more)
const MsgNotFound = "Analisi non trovata"

const listKey = "history:list"

// Service implements the history operations
type Service struct {
	repo  ports.AnalysisRepository
	cache ports.ListCache
	ttl   time.Duration
	log   *internal.Logger
	group singleflight.Group
}

// NewService creates a history service. cache may be nil to disable caching.
func NewService(repo ports.AnalysisRepository, cache ports.ListCache, ttl time.Duration, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, log: logger}
}

// List returns summaries, most recent first. limit <= 0 returns all.
func (s *Service) List(ctx context.Context, limit int) ([]analysis.Summary, error) {
	all, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Service) list(ctx context.Context) ([]analysis.Summary, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, listKey)
		if err != nil {
			s.log.Warn("history cache read failed", "error", err)
		} else if ok {
			var cached []analysis.Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.log.Warn("discarding undecodable history cache entry")
		}
	}

	v, err, _ := s.group.Do(listKey, func() (interface{}, error) {
		summaries, err := s.repo.List(ctx, 0)
		if err != nil {
			return nil, errors.Wrap(err, "list analyses")
		}
		if s.cache != nil {
			if raw, err := json.Marshal(summaries); err == nil {
				if err := s.cache.Set(ctx, listKey, raw, s.ttl); err != nil {
					s.log.Warn("history cache write failed", "error", err)
				}
			}
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	summaries := v.([]analysis.Summary)
	out := make([]analysis.Summary, len(summaries))
	copy(out, summaries)
	return out, nil
}

// Get opens a stored analysis
func (s *Service) Get(ctx context.Context, id int64) (*analysis.Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.UserFacing(errors.CodeNotFound, MsgNotFound, err)
		}
		return nil, errors.Wrap(err, "load analysis")
	}
	return rec, nil
}

// Delete removes an analysis
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if core.IsNotFoundError(err) {
			return errors.UserFacing(errors.CodeNotFound, MsgNotFound, err)
		}
		return errors.Wrap(err, "delete analysis")
	}
	s.Invalidate(ctx)
	s.log.Info("analysis deleted", "analysis_id", id)
	return nil
}

// Invalidate drops the cached listing
func (s *Service) Invalidate(ctx context.Context) {
	s.group.Forget(listKey)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listKey); err != nil {
		s.log.Warn("history cache invalidation failed", "error", err)
	}
}

// Track wraps a runner so that every stored analysis invalidates the listing
func (s *Service) Track(runner ports.AnalysisRunner) ports.AnalysisRunner {
	return trackingRunner{next: runner, history: s}
}

type trackingRunner struct {
	next    ports.AnalysisRunner
	history *Service
}

func (t trackingRunner) RunAnalysis(ctx context.Context, sub submission.Submission) (*ports.AnalysisOutcome, error) {
	out, err := t.next.RunAnalysis(ctx, sub)
	if err == nil {
		// the run's own context may be near its deadline
		t.history.Invalidate(context.WithoutCancel(ctx))
	}
	return out, err
}
