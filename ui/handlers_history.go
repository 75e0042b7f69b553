package ui

import (
	"net/http"
	"strconv"

	"uniscan/app/export"
	"uniscan/app/history"
	"uniscan/app/presentation"
	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/internal/errors"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type deleteRequest struct {
	Confirm string `form:"confirm" binding:"required,eq=yes"`
}

// analysisID parses the :id path segment. A malformed id is reported as a
// missing analysis.
func analysisID(c *gin.Context) (int64, error) {
	id, err := core.ParseRecordID(c.Param("id"))
	if err != nil {
		return 0, errors.UserFacing(errors.CodeNotFound, history.MsgNotFound, err)
	}
	return id, nil
}

func (s *Server) handleHistory(c *gin.Context) {
	list, err := s.c.History.List(c.Request.Context(), 0)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, tmplHistory, gin.H{
		"Title":    "Storico analisi",
		"Active":   "history",
		"Analyses": list,
	})
}

func (s *Server) handleAnalysesList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := s.c.History.List(c.Request.Context(), limit)
	if err != nil {
		s.jsonError(c, err)
		return
	}
	if list == nil {
		list = []analysis.Summary{}
	}
	c.JSON(http.StatusOK, list)
}

// loadView opens a stored analysis and projects it
func (s *Server) loadView(c *gin.Context) (*analysis.Record, presentation.View, bool) {
	id, err := analysisID(c)
	if err != nil {
		s.renderError(c, err)
		return nil, presentation.View{}, false
	}
	rec, err := s.c.History.Get(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return nil, presentation.View{}, false
	}
	return rec, presentation.Build(*rec, rec.Decode()), true
}

func (s *Server) handleAnalysis(c *gin.Context) {
	rec, view, ok := s.loadView(c)
	if !ok {
		return
	}
	s.renderTemplate(c, http.StatusOK, tmplResults, gin.H{
		"Title":      view.Title,
		"Active":     "history",
		"View":       view,
		"AnalysisID": rec.ID,
	})
}

// handleDelete removes an analysis once the operator confirmed. Without
// confirm=yes the confirmation prompt is shown and nothing is deleted.
func (s *Server) handleDelete(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.renderError(c, err)
		return
	}

	var req deleteRequest
	if err := c.ShouldBind(&req); err != nil {
		rec, err := s.c.History.Get(c.Request.Context(), id)
		if err != nil {
			s.renderError(c, err)
			return
		}
		s.renderTemplate(c, http.StatusOK, tmplHistory, gin.H{
			"Title":         "Conferma eliminazione",
			"Active":        "history",
			"ConfirmDelete": rec.Summary(),
		})
		return
	}

	if err := s.c.History.Delete(c.Request.Context(), id); err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/history")
}

func (s *Server) handleGenerateEmail(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if _, err := s.c.Emails.Generate(c.Request.Context(), id); err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			s.renderError(c, err)
			return
		}
		rec, getErr := s.c.History.Get(c.Request.Context(), id)
		if getErr != nil {
			s.renderError(c, getErr)
			return
		}
		s.log.Warn("email generation failed", "analysis_id", id, "error", err)
		view := presentation.Build(*rec, rec.Decode())
		s.renderTemplate(c, statusFor(err), tmplResults, gin.H{
			"Title":      view.Title,
			"Active":     "history",
			"View":       view,
			"AnalysisID": rec.ID,
			"EmailError": messageFor(err),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/analyses/"+strconv.FormatInt(id, 10)+"#email")
}

func (s *Server) handleEmailAPI(c *gin.Context) {
	id, err := analysisID(c)
	if err != nil {
		s.jsonError(c, err)
		return
	}
	email, err := s.c.Emails.Generate(c.Request.Context(), id)
	if err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// handleExport downloads the analysis as a standalone HTML report or XLSX
// workbook
func (s *Server) handleExport(c *gin.Context) {
	format := c.Param("format")
	if format != export.FormatHTML && format != export.FormatXLSX {
		s.handleNotFound(c)
		return
	}
	_, view, ok := s.loadView(c)
	if !ok {
		return
	}

	now := s.now()
	var (
		out         []byte
		err         error
		contentType string
	)
	switch format {
	case export.FormatHTML:
		out, err = export.HTML(view, now)
		contentType = "text/html; charset=utf-8"
	case export.FormatXLSX:
		out, err = export.XLSX(view)
		contentType = xlsxContentType
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(view.Title, now, format)+`"`)
	c.Data(http.StatusOK, contentType, out)
}

func (s *Server) handleNotFound(c *gin.Context) {
	s.renderTemplate(c, http.StatusNotFound, tmplNotFound, gin.H{
		"Title":   "Pagina non trovata",
		"Message": "La pagina richiesta non esiste.",
	})
}
