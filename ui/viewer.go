package ui

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"uniscan/app/export"
	"uniscan/app/history"
	"uniscan/app/presentation"
	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/internal"
	"uniscan/internal/errors"
)

// AnalysisReader is the read side of the analysis history
type AnalysisReader interface {
	List(ctx context.Context, limit int) ([]analysis.Summary, error)
	Get(ctx context.Context, id int64) (*analysis.Record, error)
}

// Viewer is the read-only report browser. It lists stored analyses and
// serves each one as its exported document.
type Viewer struct {
	router    *chi.Mux
	analyses  AnalysisReader
	templates *template.Template
	log       *internal.Logger
	now       func() time.Time
}

// NewViewer creates the viewer over the given history
func NewViewer(analyses AnalysisReader, logger *internal.Logger) (*Viewer, error) {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		router:    chi.NewRouter(),
		analyses:  analyses,
		templates: templates,
		log:       logger.With("component", "viewer"),
		now:       time.Now,
	}
	v.setupMiddleware()
	v.setupRoutes()
	return v, nil
}

// setupMiddleware configures HTTP middleware
func (v *Viewer) setupMiddleware() {
	v.router.Use(middleware.RequestID)
	v.router.Use(middleware.Recoverer)
	v.router.Use(middleware.Compress(5))
	v.router.Use(v.requestLogger)

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		v.log.Error("failed to create static filesystem", "error", err)
		return
	}
	v.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}

func (v *Viewer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		v.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"took", time.Since(start))
	})
}

// setupRoutes configures the viewer routes
func (v *Viewer) setupRoutes() {
	v.router.Get("/", v.handleIndex)
	v.router.Get("/analyses/{id}", v.handleAnalysis)
	v.router.Get("/analyses/{id}/xlsx", v.handleWorkbook)
	v.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		v.render(w, http.StatusNotFound, "viewer_not_found.html", map[string]interface{}{
			"Title":   "Pagina non trovata",
			"Message": "La pagina richiesta non esiste.",
		})
	})
}

// ServeHTTP makes the viewer an http.Handler
func (v *Viewer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v.router.ServeHTTP(w, r)
}

func (v *Viewer) render(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		v.log.Error("template error", "template", name, "error", err)
		http.Error(w, "Errore di visualizzazione della pagina", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (v *Viewer) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		v.render(w, status, "viewer_not_found.html", map[string]interface{}{
			"Title":   "Non trovato",
			"Message": errors.UserMessage(err),
		})
		return
	}
	v.log.Error("viewer request failed", "error", err)
	http.Error(w, messageFor(err), status)
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := v.analyses.List(r.Context(), 0)
	if err != nil {
		v.fail(w, err)
		return
	}
	v.render(w, http.StatusOK, "viewer_index.html", map[string]interface{}{
		"Title":    "Analisi salvate",
		"Analyses": list,
	})
}

func (v *Viewer) load(w http.ResponseWriter, r *http.Request) (presentation.View, bool) {
	id, err := core.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		v.fail(w, errors.UserFacing(errors.CodeNotFound, history.MsgNotFound, err))
		return presentation.View{}, false
	}
	rec, err := v.analyses.Get(r.Context(), id)
	if err != nil {
		v.fail(w, err)
		return presentation.View{}, false
	}
	return presentation.Build(*rec, rec.Decode()), true
}

// handleAnalysis serves the exported HTML report inline
func (v *Viewer) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	view, ok := v.load(w, r)
	if !ok {
		return
	}
	doc, err := export.HTML(view, v.now())
	if err != nil {
		v.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

func (v *Viewer) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	view, ok := v.load(w, r)
	if !ok {
		return
	}
	out, err := export.XLSX(view)
	if err != nil {
		v.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(view.Title, v.now(), export.FormatXLSX)+`"`)
	w.Write(out)
}
