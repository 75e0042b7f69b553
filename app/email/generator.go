// Package email drafts the follow-up email a promoter sends after an
// analysis, built from the gaps the analysis found.
package email

import (
	"context"
	"encoding/json"
	"strings"

	"uniscan/adapters/llm"
	"uniscan/app/prompts"
	"uniscan/app/settings"
	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/internal"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// Gap types understood by the email prompt, in priority order
const (
	GapCoverage = "coverage_gap"
	GapCurrency = "currency_gap"
	GapDepth    = "depth_gap"
	GapPedagogy = "pedagogy_gap"
)

// MsgAnalysisNotFound is shown when the analysis no longer exists
const MsgAnalysisNotFound = "Analisi non trovata"

// MsgCommercialUnavailable is shown when the stored strategy cannot be read
const MsgCommercialUnavailable = "La sintesi commerciale di questa analisi non è leggibile: impossibile generare l'email."

var gapKeywords = []struct {
	kind     string
	keywords []string
}{
	{GapCoverage, []string{"copertura", "coverage", "assente", "mancante"}},
	{GapCurrency, []string{"attualità", "attualita", "currency", "obsolet", "aggiornamento"}},
	{GapDepth, []string{"profondità", "profondita", "depth", "superficial"}},
	{GapPedagogy, []string{"pedagogia", "pedagogy", "approccio", "metodo"}},
}

// MapGapType maps a free-form gap type to one of the email gap types.
// Anything unrecognised is a depth gap.
func MapGapType(kind string) string {
	lower := strings.ToLower(kind)
	for _, g := range gapKeywords {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.kind
			}
		}
	}
	return GapDepth
}

// GapInfo is one gap as the email prompt sees it
type GapInfo struct {
	Type        string `json:"type"`
	Topic       string `json:"argomento"`
	Importance  string `json:"importanza"`
	Description string `json:"descrizione"`
}

// Gaps converts the analysis gaps. An analysis without gaps still yields one
// generic gap so the email has something to address.
func Gaps(res analysis.Result) []GapInfo {
	var out []GapInfo
	for _, g := range res.Commercial.Gaps {
		topic := g.ModuleRef.String()
		if topic == "" {
			topic = analysis.NotSpecified
		}
		importance := strings.ToUpper(strings.TrimSpace(g.Severity))
		if importance == "" {
			importance = "MEDIA"
		}
		out = append(out, GapInfo{
			Type:        MapGapType(g.Type),
			Topic:       topic,
			Importance:  importance,
			Description: g.Description,
		})
	}
	if len(out) == 0 {
		out = append(out, GapInfo{
			Type:        GapDepth,
			Topic:       "Supporto didattico",
			Importance:  "MEDIA",
			Description: "Opportunità di migliorare il supporto didattico con materiali aggiornati",
		})
	}
	return out
}

type manualRef struct {
	Title      string   `json:"titolo"`
	Authors    string   `json:"autori"`
	Edition    string   `json:"annoEdizione,omitempty"`
	Advantages []string `json:"vantaggi,omitempty"`
}

type promoterInfo struct {
	Name  string `json:"nome"`
	Phone string `json:"telefono,omitempty"`
	Email string `json:"email,omitempty"`
}

type promptInput struct {
	Contextual  analysis.Phase1 `json:"analisiContestuale"`
	Technical   analysis.Phase2 `json:"analisiTecnica"`
	Gaps        []GapInfo       `json:"gapRilevati"`
	Adopted     *manualRef      `json:"manualeAdottato,omitempty"`
	Recommended *manualRef      `json:"manualeRaccomandato,omitempty"`
	Promoter    promoterInfo    `json:"datiPromotore"`
	Professor   string          `json:"nomeDocente"`
	CourseTitle string          `json:"titoloCorso"`
	Subject     string          `json:"areaDisciplinare"`
}

// Generator implements ports.EmailGenerator
type Generator struct {
	analyses  ports.AnalysisRepository
	profiles  *settings.ProfileService
	llm       ports.LLMClient
	publisher ports.PublisherSource
	prompts   *prompts.Set
	model     string
	maxTokens int
	log       *internal.Logger
}

var _ ports.EmailGenerator = (*Generator)(nil)

// NewGenerator creates an email generator
func NewGenerator(analyses ports.AnalysisRepository, profiles *settings.ProfileService, client ports.LLMClient, publisher ports.PublisherSource, model string, maxTokens int, logger *internal.Logger) *Generator {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Generator{
		analyses:  analyses,
		profiles:  profiles,
		llm:       client,
		publisher: publisher,
		prompts:   prompts.MustDefault(),
		model:     model,
		maxTokens: maxTokens,
		log:       logger,
	}
}

// Generate drafts the email of an analysis and stores it on the analysis,
// replacing any previous draft.
func (g *Generator) Generate(ctx context.Context, analysisID int64) (*analysis.Email, error) {
	rec, err := g.analyses.GetByID(ctx, analysisID)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.UserFacing(errors.CodeNotFound, MsgAnalysisNotFound, err)
		}
		return nil, errors.Wrap(err, "load analysis")
	}
	profile, err := g.profiles.Require(ctx)
	if err != nil {
		return nil, err
	}

	decoded := rec.Decode()
	if !decoded.Available(analysis.SectionCommercial) {
		return nil, errors.UserFacing(errors.CodeMalformedData, MsgCommercialUnavailable, decoded.Malformed[analysis.SectionCommercial])
	}
	res := decoded.Result

	input := promptInput{
		Contextual: res.Contextual,
		Technical:  res.Technical,
		Gaps:       Gaps(res),
		Promoter: promoterInfo{
			Name:  profile.FullName,
			Phone: profile.Phone,
			Email: profile.Email,
		},
		Professor:   fallback(rec.Professor, "Docente"),
		CourseTitle: fallback(rec.ProgramTitle, "Corso"),
		Subject:     fallback(rec.SubjectName, res.Metadata.Subject, "Area disciplinare"),
	}
	if m := res.Technical.AdoptedManual; m != nil && m.Title != "" {
		input.Adopted = &manualRef{Title: m.Title, Authors: m.Author, Edition: m.Year.String()}
	}
	if m := res.Commercial.Opportunity.RecommendedManual; m != nil && m.Title != "" {
		ref := &manualRef{Title: m.Title, Authors: m.Author}
		for _, edge := range res.Commercial.Opportunity.Strengths {
			ref.Advantages = append(ref.Advantages, edge.Description)
		}
		input.Recommended = ref
	}

	raw, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode email input")
	}
	publisher := rec.Publisher
	if publisher == "" {
		publisher = g.publisher.Publisher()
	}
	system, user, err := g.prompts.Render(prompts.Email, prompts.Data{Publisher: publisher, InputJSON: string(raw)})
	if err != nil {
		return nil, errors.Wrap(err, "render email prompt")
	}

	client := llm.NewStructuredClient[analysis.Email](g.llm, g.model, g.maxTokens)
	email, err := client.GetJSON(ctx, system, user)
	if err != nil {
		return nil, errors.Wrap(err, "generate email")
	}

	stored, err := json.Marshal(email)
	if err != nil {
		return nil, errors.Wrap(err, "encode email")
	}
	if err := g.analyses.UpdateEmail(ctx, analysisID, stored); err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.UserFacing(errors.CodeNotFound, MsgAnalysisNotFound, err)
		}
		return nil, errors.Wrap(err, "store email")
	}

	g.log.Info("email generated", "analysis_id", analysisID, "primary_gap", email.PrimaryGap)
	return email, nil
}

func fallback(values ...string) string {
	for _, v := range values[:len(values)-1] {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return values[len(values)-1]
}
