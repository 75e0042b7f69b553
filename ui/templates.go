package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"uniscan/app/presentation"
	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/internal/errors"

	"github.com/gin-gonic/gin"
)

// Template names
const (
	tmplIndex      = "index.html"
	tmplProcessing = "processing.html"
	tmplResults    = "results.html"
	tmplHistory    = "history.html"
	tmplSettings   = "settings.html"
	tmplNotFound   = "not_found.html"
	tmplError      = "error.html"
)

// loadTemplates parses the embedded page templates
func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("02/01/2006 15:04")
		},
		"coverage": func(pct float64) map[string]interface{} {
			band := analysis.CoverageBand(pct)
			return map[string]interface{}{
				"Value": analysis.RoundPercent(pct),
				"Color": band.Color(),
				"Label": band.Label(),
			}
		},
		"dict": func(kv ...interface{}) (map[string]interface{}, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict needs key/value pairs")
			}
			m := make(map[string]interface{}, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", kv[i])
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "..."
		},
	}

	templatesFS, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	templates, err := template.New("").Funcs(funcMap).Funcs(presentation.Funcs()).ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if templates, err = presentation.ParseSections(templates); err != nil {
		return nil, fmt.Errorf("failed to parse section templates: %w", err)
	}
	return templates, nil
}

// renderTemplate executes a template with the given data. The page is
// rendered to a buffer first so a template error never leaves a half-written
// response.
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Active"]; !ok {
		data["Active"] = ""
	}
	data["Publisher"] = s.c.Publisher.Publisher()

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template error", "template", name, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Errore di visualizzazione della pagina"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// renderError shows err on a page with the matching status. Missing
// analyses get the dedicated not-found page.
func (s *Server) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	if status == http.StatusNotFound {
		s.renderTemplate(c, status, tmplNotFound, gin.H{"Title": "Non trovato", "Message": errors.UserMessage(err)})
		return
	}
	s.renderTemplate(c, status, tmplError, gin.H{"Title": "Errore", "Message": messageFor(err)})
}

// jsonError writes err as {"error": ..., "code": ..., "violations": [...]}
func (s *Server) jsonError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("api request failed", "path", c.Request.URL.Path, "error", err)
	}
	body := gin.H{"error": messageFor(err), "code": errors.GetCode(err)}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Violations) > 0 {
		body["violations"] = appErr.Violations
	}
	c.JSON(status, body)
}

// statusFor maps error codes and domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, core.ErrInFlight), stderrors.Is(err, core.ErrInvalidState):
		return http.StatusConflict
	case core.IsNotFoundError(err) && !errors.IsAppError(err):
		return http.StatusNotFound
	}
	switch errors.GetCode(err) {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeMalformedData:
		return http.StatusUnprocessableEntity
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the operator-facing line for err. Internal details are
// logged, never shown.
func messageFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInFlight):
		return "Un'analisi è già in corso."
	case stderrors.Is(err, core.ErrInvalidState):
		return "Operazione non consentita in questo momento."
	}
	return errors.OperatorMessage(err)
}
