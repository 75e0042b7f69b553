// Package pipeline runs the three-phase syllabus analysis: contextual
// profile, technical coverage, commercial strategy. A run either stores a
// complete analysis or stores nothing.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"uniscan/adapters/llm"
	"uniscan/app/prompts"
	"uniscan/app/settings"
	"uniscan/domain/analysis"
	"uniscan/domain/bibliography"
	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/domain/submission"
	"uniscan/internal"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// Config tunes the model calls
type Config struct {
	Model     string
	MaxTokens int
}

// Service implements ports.AnalysisRunner
type Service struct {
	catalog   ports.CatalogRepository
	analyses  ports.AnalysisRepository
	llm       ports.LLMClient
	publisher ports.PublisherSource
	prompts   *prompts.Set
	config    Config
	clock     core.Clock
	log       *internal.Logger
}

var _ ports.AnalysisRunner = (*Service)(nil)

// NewService creates a pipeline service
func NewService(catalogRepo ports.CatalogRepository, analyses ports.AnalysisRepository, client ports.LLMClient, publisher ports.PublisherSource, config Config, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if publisher == nil {
		publisher = settings.Static(catalog.DefaultPublisher)
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 8000
	}
	return &Service{
		catalog:   catalogRepo,
		analyses:  analyses,
		llm:       client,
		publisher: publisher,
		prompts:   prompts.MustDefault(),
		config:    config,
		clock:     core.SystemClock{},
		log:       logger,
	}
}

// WithClock replaces the clock used to stamp the analysis date
func (s *Service) WithClock(clock core.Clock) *Service {
	s.clock = clock
	return s
}

// runContext is everything loaded before the first model call
type runContext struct {
	publisher string
	subject   *catalog.Subject
	framework *catalog.Framework
	own       []catalog.Manual
	resolved  map[int64]catalog.Manual
}

// RunAnalysis executes the three phases in order and persists the result
func (s *Service) RunAnalysis(ctx context.Context, sub submission.Submission) (*ports.AnalysisOutcome, error) {
	started := time.Now()
	log := s.log.With("subject_id", sub.SubjectID)

	rc, err := s.load(ctx, sub)
	if err != nil {
		return nil, err
	}
	log.Info("analysis context loaded", "subject", rc.subject.Name, "own_manuals", len(rc.own), "publisher", rc.publisher)

	bib := s.bibliographySection(rc, sub.Bibliography)
	data := prompts.Data{
		Publisher:    rc.publisher,
		SubjectName:  rc.subject.Name,
		ProgramText:  sub.Content,
		Bibliography: bib,
	}

	phase1, err := runPhase[analysis.Phase1](ctx, s, prompts.Contextual, data)
	if err != nil {
		return nil, errors.Wrap(err, "contextual phase")
	}
	log.Debug("contextual phase completed")

	data.Phase1JSON = indentJSON(phase1)
	data.FrameworkJSON = indentRaw(rc.framework.Content)
	phase2, err := runPhase[analysis.Phase2](ctx, s, prompts.Technical, data)
	if err != nil {
		return nil, errors.Wrap(err, "technical phase")
	}
	log.Debug("technical phase completed")

	data.Phase2JSON = indentJSON(phase2)
	data.CatalogJSON = indentJSON(catalogView(rc.own))
	phase3, err := runPhase[analysis.Phase3](ctx, s, prompts.Commercial, data)
	if err != nil {
		return nil, errors.Wrap(err, "commercial phase")
	}
	log.Debug("commercial phase completed")

	result := analysis.Result{
		Metadata:   s.metadata(rc.subject, sub, phase1),
		Contextual: *phase1,
		Technical:  *phase2,
		Commercial: *phase3,
	}

	rec, err := analysis.NewRecord(result)
	if err != nil {
		return nil, errors.Wrap(err, "encode analysis")
	}
	rec.SubjectID = sub.SubjectID
	rec.SubjectName = rc.subject.Name
	rec.ProgramTitle = sub.Title
	rec.ProgramContent = analysis.TruncateContent(sub.Content)
	rec.Professor = sub.Professor
	rec.University = result.Metadata.University
	rec.DegreeCourse = result.Metadata.DegreeCourse
	rec.Publisher = rc.publisher
	if err := rec.SetBibliography(sub.Bibliography); err != nil {
		return nil, errors.Wrap(err, "encode bibliography")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := s.analyses.Create(ctx, &rec)
	if err != nil {
		return nil, errors.Wrap(err, "store analysis")
	}

	log.Info("analysis stored", "analysis_id", stored.ID, "coverage", rec.TotalCoverage, "duration", time.Since(started))
	return &ports.AnalysisOutcome{Record: stored, Result: result}, nil
}

// load fetches subject, framework, own catalog and referenced manuals concurrently
func (s *Service) load(ctx context.Context, sub submission.Submission) (*runContext, error) {
	rc := &runContext{
		publisher: s.publisher.Publisher(),
		resolved:  make(map[int64]catalog.Manual),
	}
	var frameworkErr error
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subject, err := s.catalog.GetSubject(gctx, sub.SubjectID)
		if err != nil {
			if core.IsNotFoundError(err) {
				return errors.UserFacing(errors.CodeNotFound, "Materia non trovata", err)
			}
			return errors.Wrap(err, "load subject")
		}
		rc.subject = subject
		return nil
	})
	g.Go(func() error {
		fw, err := s.catalog.GetActiveFramework(gctx, sub.SubjectID)
		if err != nil {
			if core.IsNotFoundError(err) {
				// reported after the subject name is known
				frameworkErr = err
				return nil
			}
			return errors.Wrap(err, "load framework")
		}
		rc.framework = fw
		return nil
	})
	g.Go(func() error {
		manuals, err := s.catalog.ListManualsBySubject(gctx, sub.SubjectID, rc.publisher)
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		rc.own = catalog.Own(manuals)
		return nil
	})
	for _, id := range sub.Bibliography.CatalogIDs() {
		g.Go(func() error {
			m, err := s.catalog.GetManual(gctx, id)
			if err != nil {
				if core.IsNotFoundError(err) {
					s.log.Warn("bibliography references unknown manual", "manual_id", id)
					return nil
				}
				return errors.Wrap(err, "load manual")
			}
			mu.Lock()
			rc.resolved[id] = *m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if frameworkErr != nil || rc.framework == nil {
		return nil, errors.UserFacing(errors.CodeNotFound,
			fmt.Sprintf("Nessun framework attivo trovato per %s. Carica prima un framework.", rc.subject.Name),
			frameworkErr)
	}
	return rc, nil
}

func runPhase[T any](ctx context.Context, s *Service, name string, data prompts.Data) (*T, error) {
	system, user, err := s.prompts.Render(name, data)
	if err != nil {
		return nil, errors.Wrap(err, "render prompt")
	}
	client := llm.NewStructuredClient[T](s.llm, s.config.Model, s.config.MaxTokens)
	return client.GetJSON(ctx, system, user)
}

// bibliographySection describes the adopted manuals for the prompts.
// Catalog references resolve through the catalog; unknown ids are skipped.
func (s *Service) bibliographySection(rc *runContext, bib bibliography.Bibliography) string {
	describe := func(ref bibliography.Reference) (string, bool) {
		var title, author, publisher string
		switch {
		case ref.IsCatalog():
			m, ok := rc.resolved[ref.ManualID]
			if !ok {
				return "", false
			}
			title, author, publisher = m.Title, m.Author, m.Publisher
		case ref.IsCustom():
			title, author, publisher = ref.Title, ref.Author, ref.Publisher
		default:
			return "", false
		}
		kind := "Competitor"
		if publisher != "" && strings.EqualFold(publisher, rc.publisher) {
			kind = rc.publisher
		}
		if publisher == "" {
			publisher = analysis.NotSpecified
		}
		return fmt.Sprintf("%s - %s (%s) [%s]", title, author, publisher, kind), true
	}

	var b strings.Builder
	if bib.Primary != nil {
		if line, ok := describe(*bib.Primary); ok {
			b.WriteString("MANUALE PRINCIPALE (preferito dal docente):\n")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	n := 0
	for _, ref := range bib.Alternatives {
		line, ok := describe(ref)
		if !ok {
			continue
		}
		if n == 0 {
			b.WriteString("MANUALI ALTERNATIVI:\n")
		}
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, line)
	}
	return b.String()
}

// metadata fills the result header, falling back to what phase 1 inferred
func (s *Service) metadata(subject *catalog.Subject, sub submission.Submission, phase1 *analysis.Phase1) analysis.Metadata {
	return analysis.Metadata{
		AnalysisDate:  core.FormatDate(s.clock.Now()),
		Subject:       subject.Name,
		DegreeCourse:  firstNonEmpty(sub.DegreeCourse, phase1.Students.DegreeCourse),
		University:    firstNonEmpty(sub.University, phase1.Institution.University),
		Professor:     firstNonEmpty(sub.Professor),
		SystemVersion: analysis.SystemVersion,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return analysis.NotSpecified
}

type catalogEntry struct {
	ID      int64  `json:"id"`
	Title   string `json:"titolo"`
	Author  string `json:"autore"`
	Edition string `json:"edizione,omitempty"`
	Year    int    `json:"anno,omitempty"`
	Index   string `json:"indice,omitempty"`
}

func catalogView(manuals []catalog.Manual) []catalogEntry {
	out := make([]catalogEntry, 0, len(manuals))
	for _, m := range manuals {
		out = append(out, catalogEntry{
			ID:      m.ID,
			Title:   m.Title,
			Author:  m.Author,
			Edition: m.Edition,
			Year:    m.Year,
			Index:   m.IndexText,
		})
	}
	return out
}

func indentJSON(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func indentRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return indentJSON(v)
}
