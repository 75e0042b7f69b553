package ui

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"uniscan/app/presentation"
	"uniscan/app/progress"
	"uniscan/app/workflow"
	"uniscan/domain/bibliography"
	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/domain/submission"
	"uniscan/internal/api"
	"uniscan/internal/errors"

	"github.com/gin-gonic/gin"
)

// formPayload is the analysis form as the browser posts it. Bibliography
// rows arrive as parallel arrays, one entry per alternative slot.
type formPayload struct {
	SubjectID    int64  `form:"subject_id"`
	Title        string `form:"program_title"`
	Content      string `form:"program_content"`
	Professor    string `form:"professor_name" binding:"max=200"`
	University   string `form:"university" binding:"max=200"`
	DegreeCourse string `form:"degree_course" binding:"max=200"`

	PrimaryManual    string `form:"primary_manual_id"`
	PrimaryTitle     string `form:"primary_title"`
	PrimaryAuthor    string `form:"primary_author"`
	PrimaryPublisher string `form:"primary_publisher"`

	AltManual    []string `form:"alt_manual_id"`
	AltTitle     []string `form:"alt_title"`
	AltAuthor    []string `form:"alt_author"`
	AltPublisher []string `form:"alt_publisher"`
}

func (p formPayload) toForm() submission.Form {
	form := submission.Form{
		SubjectID:    p.SubjectID,
		Title:        p.Title,
		Content:      p.Content,
		Professor:    p.Professor,
		University:   p.University,
		DegreeCourse: p.DegreeCourse,
		Primary:      slotOf(p.PrimaryManual, p.PrimaryTitle, p.PrimaryAuthor, p.PrimaryPublisher),
	}
	for i := 0; i < p.altCount(); i++ {
		form.Alternatives = append(form.Alternatives, slotOf(
			at(p.AltManual, i), at(p.AltTitle, i), at(p.AltAuthor, i), at(p.AltPublisher, i)))
	}
	return form
}

func (p formPayload) altCount() int {
	n := len(p.AltManual)
	for _, l := range [][]string{p.AltTitle, p.AltAuthor, p.AltPublisher} {
		if len(l) > n {
			n = len(l)
		}
	}
	return n
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func slotOf(manualID, title, author, publisher string) bibliography.Slot {
	var slot bibliography.Slot
	if id, err := strconv.ParseInt(strings.TrimSpace(manualID), 10, 64); err == nil && id > 0 {
		slot.ManualID = &id
	}
	if title != "" || author != "" || publisher != "" {
		slot.Custom = &bibliography.CustomFields{Title: title, Author: author, Publisher: publisher}
	}
	return slot
}

// slotRow is a bibliography slot flattened for redisplay
type slotRow struct {
	ManualID  int64
	Title     string
	Author    string
	Publisher string
}

func rowOf(slot bibliography.Slot) slotRow {
	var row slotRow
	if slot.ManualID != nil {
		row.ManualID = *slot.ManualID
	}
	if slot.Custom != nil {
		row.Title = slot.Custom.Title
		row.Author = slot.Custom.Author
		row.Publisher = slot.Custom.Publisher
	}
	return row
}

// checkAlternatives caps the number of alternative slots a request may carry
func (s *Server) checkAlternatives(n int) error {
	if s.maxAlts > 0 && n > s.maxAlts {
		return errors.UserFacing(errors.CodeInvalidInput,
			fmt.Sprintf("Puoi indicare al massimo %d manuali alternativi", s.maxAlts), nil)
	}
	return nil
}

// handleIndex shows the form, the processing view or the results of the
// session's workflow, whichever state it is in
func (s *Server) handleIndex(c *gin.Context) {
	wf := s.workflowOf(c)
	snap := wf.Snapshot()

	switch snap.State {
	case workflow.StateProcessing:
		s.renderTemplate(c, http.StatusOK, tmplProcessing, gin.H{
			"Title":    "Analisi in corso",
			"Active":   "analyze",
			"Snapshot": snap,
			"Phases":   phaseLabels(),
		})
		return
	case workflow.StateResults:
		if outcome, ok := wf.Outcome(); ok && outcome.Record != nil {
			rec := *outcome.Record
			s.renderTemplate(c, http.StatusOK, tmplResults, gin.H{
				"Title":      "Risultati",
				"Active":     "analyze",
				"View":       presentation.Build(rec, rec.Decode()),
				"AnalysisID": rec.ID,
				"Current":    true,
			})
			return
		}
	}

	form := wf.Form()
	data := gin.H{
		"Title":      "Nuova analisi",
		"Active":     "analyze",
		"Form":       form,
		"Error":      snap.Error,
		"Violations": violationMap(snap.Violations),
		"MinContent": submission.MinContentLength,
		"MaxAlts":    s.maxAlts,
		"Primary":    rowOf(form.Primary),
	}
	alts := make([]slotRow, 0, len(form.Alternatives))
	for _, slot := range form.Alternatives {
		alts = append(alts, rowOf(slot))
	}
	data["Alternatives"] = alts
	subjects, err := s.c.Catalog.ListSubjects(c.Request.Context())
	if err != nil {
		s.log.Error("failed to list subjects", "error", err)
		data["Error"] = "Impossibile caricare l'elenco delle materie"
	}
	data["Subjects"] = subjects
	if form.SubjectID > 0 {
		manuals, err := s.c.Catalog.ListManualsBySubject(c.Request.Context(), form.SubjectID, s.c.Publisher.Publisher())
		if err != nil {
			s.log.Warn("failed to list manuals", "subject_id", form.SubjectID, "error", err)
		}
		data["Manuals"] = manuals
	}
	s.renderTemplate(c, http.StatusOK, tmplIndex, data)
}

func (s *Server) handleSubmit(c *gin.Context) {
	var payload formPayload
	if err := c.ShouldBind(&payload); err != nil {
		s.renderError(c, errors.UserFacing(errors.CodeInvalidInput, "Dati del modulo non validi", err))
		return
	}
	if err := s.checkAlternatives(payload.altCount()); err != nil {
		s.renderError(c, err)
		return
	}

	err := s.workflowOf(c).Submit(payload.toForm())
	switch {
	case err == nil,
		errors.HasCode(err, errors.CodeValidationError),
		stderrors.Is(err, core.ErrInFlight),
		stderrors.Is(err, core.ErrInvalidState):
		// the index renders whatever state the workflow ended up in
		c.Redirect(http.StatusSeeOther, "/")
	default:
		s.renderError(c, err)
	}
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.workflowOf(c).Reset(); err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleWorkflowStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.workflowOf(c).Snapshot())
}

func (s *Server) handleWorkflowSubmit(c *gin.Context) {
	var form submission.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		s.jsonError(c, errors.UserFacing(errors.CodeInvalidInput, "Richiesta non valida", err))
		return
	}
	if err := s.checkAlternatives(len(form.Alternatives)); err != nil {
		s.jsonError(c, err)
		return
	}
	wf := s.workflowOf(c)
	if err := wf.Submit(form); err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, wf.Snapshot())
}

func (s *Server) handleWorkflowReset(c *gin.Context) {
	wf := s.workflowOf(c)
	if err := wf.Reset(); err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// handleWorkflowEvents streams the session's workflow snapshots. The current
// snapshot goes out first.
func (s *Server) handleWorkflowEvents(c *gin.Context) {
	snap := s.workflowOf(c).Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		s.jsonError(c, errors.Wrap(err, "encode snapshot"))
		return
	}
	s.c.SSEHub.Stream(c, snap.SessionID, &api.Event{
		SessionID: snap.SessionID,
		Type:      api.EventWorkflow,
		Data:      raw,
		Timestamp: snap.UpdatedAt,
	})
}

func (s *Server) handleSubjects(c *gin.Context) {
	subjects, err := s.c.Catalog.ListSubjects(c.Request.Context())
	if err != nil {
		s.jsonError(c, errors.Wrap(err, "list subjects"))
		return
	}
	if subjects == nil {
		subjects = []catalog.Subject{}
	}
	c.JSON(http.StatusOK, subjects)
}

type manualOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Own   bool   `json:"own"`
}

// handleManuals lists the manuals of a subject for the bibliography selects,
// the configured publisher's first
func (s *Server) handleManuals(c *gin.Context) {
	id, err := core.ParseRecordID(c.Param("id"))
	if err != nil {
		s.jsonError(c, errors.UserFacing(errors.CodeInvalidInput, "Materia non valida", err))
		return
	}
	manuals, err := s.c.Catalog.ListManualsBySubject(c.Request.Context(), id, s.c.Publisher.Publisher())
	if err != nil {
		s.jsonError(c, errors.Wrap(err, "list manuals"))
		return
	}
	out := make([]manualOption, 0, len(manuals))
	for _, m := range manuals {
		out = append(out, manualOption{ID: m.ID, Label: m.Label(), Own: m.Type == catalog.ManualTypeOwn})
	}
	c.JSON(http.StatusOK, out)
}

func violationMap(violations []errors.Violation) map[string]string {
	if len(violations) == 0 {
		return nil
	}
	out := make(map[string]string, len(violations))
	for _, v := range violations {
		out[v.Field] = v.Message
	}
	return out
}

type phaseStep struct {
	Phase int
	Label string
}

func phaseLabels() []phaseStep {
	return []phaseStep{
		{progress.PhaseContextual, progress.PhaseLabel(progress.PhaseContextual)},
		{progress.PhaseTechnical, progress.PhaseLabel(progress.PhaseTechnical)},
		{progress.PhaseCommercial, progress.PhaseLabel(progress.PhaseCommercial)},
	}
}
