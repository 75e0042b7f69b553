package ui

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"uniscan/adapters/llm"
	"uniscan/adapters/memory"
	"uniscan/app/export"
	"uniscan/app/presentation"
	"uniscan/app/prompts"
	"uniscan/app/workflow"
	"uniscan/domain/analysis"
	"uniscan/domain/bibliography"
	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/internal/config"
	"uniscan/internal/container"
	"uniscan/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phaseReply = `{"sintesi_profilo": "Docente pratico", "copertura_totale": 72, "post_it": "Proporre Bianchi"}`

type harness struct {
	t       *testing.T
	srv     *Server
	c       *container.Container
	catalog *memory.CatalogRepository
	llm     *llm.MockLLMClient
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		AI:        config.AIConfig{Model: "gpt-4o", MaxTokens: 4000},
		Server:    config.ServerConfig{GinMode: gin.TestMode},
		Cache:     config.CacheConfig{HistoryTTL: time.Minute},
		Workflow:  config.WorkflowConfig{PipelineTimeout: 5 * time.Second, MaxAlternativeReferences: 2},
		Publisher: config.PublisherConfig{Default: "Zanichelli"},
	}
	c, err := container.New(cfg, nil)
	require.NoError(t, err)
	mock := &llm.MockLLMClient{
		Default: phaseReply,
		Replies: map[string]string{
			prompts.MarkerEmail: `{"oggetto": "Proposta Chimica", "corpo": "Gentile Prof. Verdi,\n\nle scrivo per..."}`,
		},
	}
	c.WithLLM(mock)
	cat, err := c.InitInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })

	srv, err := NewServer(c)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return &harness{t: t, srv: srv, c: c, catalog: cat, llm: mock}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookie {
			h.cookie = ck
		}
	}
	return w
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) postJSON(path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *harness) session() core.SessionID {
	require.NotNil(h.t, h.cookie)
	return core.SessionID(h.cookie.Value)
}

func (h *harness) seedSubject() int64 {
	ctx := context.Background()
	subject, err := h.catalog.CreateSubject(ctx, &catalog.Subject{Name: "Chimica Generale"})
	require.NoError(h.t, err)
	_, err = h.catalog.ActivateFramework(ctx, &catalog.Framework{SubjectID: subject.ID, Name: "Chimica", Content: json.RawMessage(`{"modules":[]}`)})
	require.NoError(h.t, err)
	_, err = h.catalog.CreateManual(ctx, &catalog.Manual{SubjectID: subject.ID, Title: "Chimica", Author: "Bianchi", Publisher: "Zanichelli", IsActive: true})
	require.NoError(h.t, err)
	return subject.ID
}

func (h *harness) storeAnalysis(res analysis.Result) int64 {
	return h.storeRecord(res, nil)
}

// storeRecord encodes res, lets mutate adjust the stored columns and saves it
func (h *harness) storeRecord(res analysis.Result, mutate func(*analysis.Record)) int64 {
	rec, err := analysis.NewRecord(res)
	require.NoError(h.t, err)
	rec.ProgramTitle = "Chimica Generale e Inorganica"
	rec.Professor = "Prof. Verdi"
	rec.Publisher = "Zanichelli"
	id := int64(1)
	require.NoError(h.t, rec.SetBibliography(bibliography.Normalize(
		bibliography.Slot{ManualID: &id},
		[]bibliography.Slot{{Custom: &bibliography.CustomFields{Title: "Chimica Moderna", Author: "Gialli", Publisher: "EdiSES"}}},
	)))
	if mutate != nil {
		mutate(&rec)
	}
	stored, err := h.c.Analyses.Create(context.Background(), &rec)
	require.NoError(h.t, err)
	return stored.ID
}

// renderBoth returns the results page and the HTML export of one analysis
func (h *harness) renderBoth(id int64) (page, doc string) {
	h.t.Helper()
	w := h.get("/analyses/" + itoa(id))
	require.Equal(h.t, http.StatusOK, w.Code)

	rec, err := h.c.History.Get(context.Background(), id)
	require.NoError(h.t, err)
	out, err := export.HTML(presentation.Build(*rec, rec.Decode()), time.Now())
	require.NoError(h.t, err)
	return w.Body.String(), string(out)
}

func validForm(subjectID int64) url.Values {
	return url.Values{
		"subject_id":      {itoa(subjectID)},
		"program_title":   {"Chimica Generale e Inorganica"},
		"program_content": {strings.Repeat("Struttura atomica e legame chimico. ", 5)},
		"professor_name":  {"Mario Verdi"},
		"primary_title":   {"Fondamenti di Chimica"},
		"primary_author":  {"Rossi"},
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

var sectionRe = regexp.MustCompile(`data-section="([a-z-]+)"`)

func sections(doc string) []string {
	seen := map[string]bool{}
	for _, m := range sectionRe.FindAllStringSubmatch(doc, -1) {
		seen[m[1]] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func richResult() analysis.Result {
	return analysis.Result{
		Metadata: analysis.Metadata{AnalysisDate: "2026-03-14", Subject: "Chimica Generale", SystemVersion: analysis.SystemVersion},
		Contextual: analysis.Phase1{
			ProfileSummary: "Docente pragmatico",
			Philosophy:     analysis.TeachingPhilosophy{MainApproach: "Approccio laboratoriale", Confidence: 0.8},
			Priorities:     analysis.PedagogicalFocus{Methods: analysis.FlexStrings{"Flipped classroom"}},
		},
		Technical: analysis.Phase2{
			TotalCoverage:    64,
			WellCovered:      analysis.FlexStrings{"Stechiometria"},
			PartiallyCovered: analysis.FlexStrings{"Cinetica chimica"},
			Omitted:          analysis.FlexStrings{"Elettrochimica"},
			DepthBreadth:     analysis.DepthBreadth{Overall: "intermedio-avanzato"},
			TechnicalSummary: "Sintesi tecnica discreta",
			Modules: []analysis.ModuleCoverage{{
				ModuleID:      "1",
				ModuleName:    "Atomi",
				CoveragePct:   85,
				CoveredTopics: analysis.FlexStrings{"Orbitali atomici"},
				OmittedTopics: analysis.FlexStrings{"Spin nucleare"},
				ExtraTopics:   analysis.FlexStrings{"Chimica nucleare"},
				Depth:         "approfondito",
				Notes:         "Modulo svolto in laboratorio",
			}},
			AdoptedManual: &analysis.AdoptedManual{
				Title:             "Fondamenti di Chimica",
				Author:            "Rossi",
				Publisher:         "Piccin",
				Year:              "2019",
				ProgramAlignment:  55,
				ChaptersUsed:      analysis.FlexStrings{"Capitolo 1"},
				ChaptersUnused:    analysis.FlexStrings{"Capitolo 12"},
				TopicsNotInManual: analysis.FlexStrings{"Spettroscopia"},
				Notes:             "Edizione datata",
			},
		},
		Commercial: analysis.Phase3{
			KeyInsight: "Cerca esercizi svolti",
			Gaps: []analysis.Gap{{
				Type:             analysis.GapInsufficientDepth,
				Description:      "Entropia superficiale",
				Severity:         "alta",
				ModuleRef:        "Termodinamica",
				CommercialImpact: "Leva sugli eserciziari",
			}},
			PostIt: "Proporre Bianchi",
			AdoptedEvaluation: &analysis.ManualEvaluation{
				Strengths:  analysis.FlexStrings{"Chiarezza espositiva"},
				Weaknesses: analysis.FlexStrings{"Pochi esercizi"},
				Gaps:       analysis.FlexStrings{"Nessuna appendice"},
			},
			Bibliography: &analysis.BibliographyAnalysis{
				Primary:            &analysis.BibliographyEntry{Title: "Fondamenti di Chimica", Author: "Rossi", Type: "Competitor", Assessment: "Manuale solido ma datato"},
				Alternatives:       []analysis.BibliographyEntry{{Title: "Chimica Moderna", Comparison: "Più applicativo"}},
				PublisherPosition:  "assente",
				CompetitiveSummary: "Rossi domina il mercato",
			},
			Opportunity: analysis.Opportunity{
				RecommendedManual: &analysis.RecommendedManual{Title: "Chimica", Author: "Bianchi"},
				Strengths:         []analysis.CompetitiveEdge{{Area: "Esercizi", Description: "500 esercizi", Relevance: "Alta rilevanza"}},
				PedagogicalFitPct: 85,
			},
			SalesArguments: []analysis.SalesArgument{{Message: "Esercizi svolti passo passo", Support: "Eserciziario online", Impact: "alto"}},
			Strategy: analysis.Strategy{
				Step1:       analysis.StrategyStep{Action: "Primo contatto", Content: "Email di presentazione", Materials: analysis.FlexStrings{"Copia saggio"}, Goal: "Fissare un appuntamento"},
				WatchPoints: analysis.FlexStrings{"Evitare il confronto sul prezzo"},
			},
		},
		Email: &analysis.Email{
			Subject:       "Proposta",
			Body:          "Gentile Prof. Verdi",
			PrimaryGap:    "Manca la termodinamica applicata",
			SecondaryGaps: analysis.FlexStrings{"Pochi esempi numerici"},
			PromoterNotes: "Richiamare a settembre",
		},
	}
}

// richFields lists what storeRecord and richResult put into an analysis,
// grouped by the part of the result they come from
var richFields = map[string][]string{
	"header": {"Editore: Zanichelli", "Versione " + analysis.SystemVersion},
	"input":  {"Manuale a catalogo n. 1", "Chimica Moderna - Gialli (EdiSES)"},
	"profile": {
		"Docente pragmatico", "Approccio laboratoriale", "Flipped classroom",
		"Filosofia didattica 80%", "Cerca esercizi svolti",
	},
	"coverage": {
		"Stechiometria", "Cinetica chimica", "Elettrochimica", "intermedio-avanzato", "Sintesi tecnica discreta",
		"Orbitali atomici", "Spin nucleare", "Chimica nucleare", "approfondito", "Modulo svolto in laboratorio",
		"Capitolo 1", "Capitolo 12", "Spettroscopia", "Edizione datata", "(2019)",
	},
	"strategy": {
		"Leva sugli eserciziari", "Termodinamica", "Chiarezza espositiva", "Pochi esercizi", "Nessuna appendice",
		"Manuale solido ma datato", "Più applicativo", "Rossi domina il mercato", "Alta rilevanza",
		"Esercizi svolti passo passo", "Eserciziario online", "Email di presentazione", "Copia saggio",
		"Fissare un appuntamento", "Allineamento al profilo pedagogico: <strong>85%</strong>",
	},
	"watch points": {"Evitare il confronto sul prezzo"},
	"email":        {"Manca la termodinamica applicata", "Pochi esempi numerici", "Richiamare a settembre"},
}

func fieldsOf(groups ...string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, richFields[g]...)
	}
	return out
}

func TestIndexRendersFormAndSetsSession(t *testing.T) {
	h := newHarness(t)
	h.seedSubject()

	w := h.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-page="form"`)
	assert.Contains(t, w.Body.String(), "Chimica Generale")
	require.NotNil(t, h.cookie)
	_, err := core.ParseSessionID(h.cookie.Value)
	assert.NoError(t, err)
}

func TestSubmitValidationErrorsRedisplayForm(t *testing.T) {
	h := newHarness(t)
	h.get("/")

	w := h.post("/analyze", url.Values{"program_title": {"Chimica"}, "program_content": {"troppo corto"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = h.get("/")
	body := w.Body.String()
	assert.Contains(t, body, `data-field="subject_id"`)
	assert.Contains(t, body, `data-field="program_content"`)
	assert.NotContains(t, body, `data-field="program_title"`)
	assert.Contains(t, body, "troppo corto")
	assert.Zero(t, h.llm.CallCount())
}

func TestSubmitRunsAnalysisAndShowsResults(t *testing.T) {
	h := newHarness(t)
	subjectID := h.seedSubject()
	h.get("/")

	w := h.post("/analyze", validForm(subjectID))
	require.Equal(t, http.StatusSeeOther, w.Code)

	wf := h.c.Workflows.Get(h.session())
	wf.Wait()
	require.Equal(t, workflow.StateResults, wf.Snapshot().State)

	w = h.get("/")
	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, `data-section="post-it"`)
	assert.Contains(t, body, "Proporre Bianchi")
	assert.Contains(t, body, `action="/reset"`)

	w = h.post("/reset", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, workflow.StateInput, wf.Snapshot().State)
}

func TestTooManyAlternativesRejected(t *testing.T) {
	h := newHarness(t)
	subjectID := h.seedSubject()
	h.get("/")

	form := validForm(subjectID)
	form["alt_title"] = []string{"A", "B", "C"}
	form["alt_author"] = []string{"a", "b", "c"}
	w := h.post("/analyze", form)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "al massimo 2 manuali alternativi")
	assert.Equal(t, workflow.StateInput, h.c.Workflows.Get(h.session()).Snapshot().State)
	assert.Zero(t, h.llm.CallCount())
}

func TestWorkflowAPI(t *testing.T) {
	h := newHarness(t)

	w := h.get("/api/workflow")
	require.Equal(t, http.StatusOK, w.Code)
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, workflow.StateInput, snap.State)
	assert.Equal(t, h.session().String(), snap.SessionID)

	w = h.postJSON("/api/workflow", `{"program_title": "Chimica"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Code       string `json:"code"`
		Violations []struct {
			Field string `json:"field"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Len(t, body.Violations, 2)

	w = h.postJSON("/api/workflow", `{"alternative_manuals": [{}, {}, {}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}

func TestWorkflowAPISubmitConflictWhileProcessing(t *testing.T) {
	h := newHarness(t)
	subjectID := h.seedSubject()
	h.llm.Block = make(chan struct{})
	h.get("/")

	payload := `{"subject_id": ` + itoa(subjectID) + `, "program_title": "Chimica", "program_content": "` + strings.Repeat("Legame chimico. ", 10) + `"}`
	w := h.postJSON("/api/workflow", payload)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = h.postJSON("/api/workflow", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.get("/")
	assert.Contains(t, w.Body.String(), `data-page="processing"`)

	close(h.llm.Block)
	h.c.Workflows.Get(h.session()).Wait()
}

func TestHistoryListsAnalyses(t *testing.T) {
	h := newHarness(t)
	h.storeAnalysis(richResult())

	w := h.get("/history")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chimica Generale e Inorganica")
	assert.Contains(t, w.Body.String(), `class="badge yellow">64%`)

	w = h.get("/api/analyses")
	var list []analysis.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	id := h.storeAnalysis(richResult())
	path := "/analyses/" + itoa(id)

	w := h.post(path+"/delete", url.Values{"confirm": {""}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-page="confirm-delete"`)
	assert.Equal(t, http.StatusOK, h.get(path).Code)

	w = h.post(path+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = h.get(path)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Analisi non trovata")
	assert.Contains(t, w.Body.String(), `href="/history"`)

	w = h.post(path+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundPages(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/nope", "/analyses/abc", "/analyses/999", "/analyses/999/export/html"} {
		w := h.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), `data-page="not-found"`, path)
	}
}

func TestExportDownloads(t *testing.T) {
	h := newHarness(t)
	id := h.storeAnalysis(richResult())
	path := "/analyses/" + itoa(id) + "/export/"

	w := h.get(path + "html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="analisi_Chimica_Generale_e_Inorganica_2026-03-14.html"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "Esportato il 14/03/2026 09:30")

	w = h.get(path + "xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))

	assert.Equal(t, http.StatusNotFound, h.get(path+"pdf").Code)
}

func TestResultsPageMatchesExportSections(t *testing.T) {
	cases := map[string]func(*analysis.Result){
		"complete": nil,
		"optional sections absent": func(res *analysis.Result) {
			res.Technical.AdoptedManual = nil
			res.Commercial.AdoptedEvaluation = nil
			res.Commercial.Bibliography = nil
			res.Commercial.Opportunity = analysis.Opportunity{}
			res.Commercial.Strategy.WatchPoints = nil
			res.Email = nil
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			res := richResult()
			if mutate != nil {
				mutate(&res)
			}
			page, doc := h.renderBoth(h.storeAnalysis(res))
			assert.Equal(t, sections(doc), sections(page))
		})
	}
}

func TestResultsPageMatchesExportFields(t *testing.T) {
	all := []string{"header", "input", "profile", "coverage", "strategy", "watch points", "email"}
	cases := []struct {
		name    string
		result  func(*analysis.Result)
		record  func(*analysis.Record)
		present []string
		absent  []string
		marker  string
	}{
		{
			name:    "every optional field filled",
			present: fieldsOf(all...),
		},
		{
			name:    "watch points present, email absent",
			result:  func(res *analysis.Result) { res.Email = nil },
			present: fieldsOf("header", "input", "profile", "coverage", "strategy", "watch points"),
			absent:  fieldsOf("email"),
		},
		{
			name:    "email present, watch points absent",
			result:  func(res *analysis.Result) { res.Commercial.Strategy.WatchPoints = nil },
			present: fieldsOf("header", "input", "profile", "coverage", "strategy", "email"),
			absent:  fieldsOf("watch points"),
		},
		{
			name:    "bibliography column unreadable",
			record:  func(rec *analysis.Record) { rec.Bibliography = json.RawMessage(`["legacy", "shape"]`) },
			present: fieldsOf("header", "profile", "coverage", "strategy", "watch points", "email"),
			absent:  fieldsOf("input"),
			marker:  `<p class="unavailable" data-section="bibliography-input">Non disponibile</p>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			res := richResult()
			if tc.result != nil {
				tc.result(&res)
			}
			page, doc := h.renderBoth(h.storeRecord(res, tc.record))

			for _, want := range tc.present {
				assert.Contains(t, page, want, "results page")
				assert.Contains(t, doc, want, "export")
			}
			for _, unwanted := range tc.absent {
				assert.NotContains(t, page, unwanted, "results page")
				assert.NotContains(t, doc, unwanted, "export")
			}
			if tc.marker != "" {
				assert.Contains(t, page, tc.marker)
				assert.Contains(t, doc, tc.marker)
			}
			assert.Equal(t, sections(doc), sections(page))
		})
	}
}

func TestResultsPageDegradesMalformedSection(t *testing.T) {
	h := newHarness(t)
	rec, err := analysis.NewRecord(richResult())
	require.NoError(t, err)
	rec.TechnicalAnalysis = json.RawMessage(`[1, 2`)
	stored, err := h.c.Analyses.Create(context.Background(), &rec)
	require.NoError(t, err)

	w := h.get("/analyses/" + itoa(stored.ID))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<p class="unavailable" data-section="coverage">Non disponibile</p>`)
	assert.Contains(t, body, `data-section="gaps"`)
}

func TestGenerateEmailRequiresProfile(t *testing.T) {
	h := newHarness(t)
	res := richResult()
	res.Email = nil
	id := h.storeAnalysis(res)

	w := h.post("/analyses/"+itoa(id)+"/email", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Profilo promotore non configurato")
	assert.Contains(t, w.Body.String(), `data-role="email-error"`)

	w = h.post("/settings/profile", url.Values{"full_name": {"Anna Neri"}, "email": {"anna.neri@example.com"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = h.post("/analyses/"+itoa(id)+"/email", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/analyses/"+itoa(id)+"#email", w.Header().Get("Location"))

	w = h.get("/analyses/" + itoa(id))
	assert.Contains(t, w.Body.String(), `data-section="email"`)
	assert.Contains(t, w.Body.String(), "Proposta Chimica")
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	w := h.get("/settings")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-page="settings"`)

	w = h.post("/settings/publisher", url.Values{"publisher": {"pearson"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "Pearson", h.c.Publisher.Publisher())

	w = h.post("/settings/publisher", url.Values{"publisher": {"Editore Fantasma"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Editore non riconosciuto")
	assert.Equal(t, "Pearson", h.c.Publisher.Publisher())

	w = h.post("/settings/profile", url.Values{"full_name": {" "}, "email": {"non-una-email"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `data-field="full_name"`)
	assert.Contains(t, w.Body.String(), `data-field="email"`)
}

func TestManualsAPI(t *testing.T) {
	h := newHarness(t)
	subjectID := h.seedSubject()

	w := h.get("/api/subjects/" + itoa(subjectID) + "/manuals")
	require.Equal(t, http.StatusOK, w.Code)
	var manuals []manualOption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manuals))
	require.Len(t, manuals, 1)
	assert.Equal(t, "Chimica - Bianchi (Zanichelli)", manuals[0].Label)
	assert.True(t, manuals[0].Own)

	assert.Equal(t, http.StatusUnprocessableEntity, h.get("/api/subjects/x/manuals").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(core.ErrInFlight))
	assert.Equal(t, http.StatusNotFound, statusFor(core.ErrAnalysisNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, errors.MsgUnexpected, messageFor(assert.AnError))
	assert.Equal(t, errors.MsgUnexpected, messageFor(errors.Wrap(stderrors.New("dial tcp: connection refused"), "store analysis")))
}
