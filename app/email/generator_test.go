package email

import (
	"context"
	"encoding/json"
	"testing"

	"uniscan/adapters/llm"
	"uniscan/adapters/memory"
	"uniscan/app/prompts"
	"uniscan/app/settings"
	"uniscan/domain/analysis"
	"uniscan/domain/promoter"
	"uniscan/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emailReply = `{
  "oggetto": "Termodinamica: una proposta per il suo corso",
  "corpo": "Gentile Prof. Verdi, ...",
  "gap_primario": "depth_gap",
  "gap_secondari": ["coverage_gap"],
  "note_per_promotore": "Insistere sugli esercizi"
}`

func TestMapGapType(t *testing.T) {
	tests := map[string]string{
		analysis.GapMissingContent:    GapCoverage,
		analysis.GapInsufficientDepth: GapDepth,
		analysis.GapDifferentApproach: GapPedagogy,
		analysis.GapMissingResources:  GapDepth,
		"Contenuti obsoleti":          GapCurrency,
		"Coverage":                    GapCoverage,
		"":                            GapDepth,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGapType(in), in)
	}
}

func TestGapsFallback(t *testing.T) {
	gaps := Gaps(analysis.Result{})
	require.Len(t, gaps, 1)
	assert.Equal(t, GapDepth, gaps[0].Type)
	assert.Equal(t, "Supporto didattico", gaps[0].Topic)

	gaps = Gaps(analysis.Result{Commercial: analysis.Phase3{Gaps: []analysis.Gap{
		{Type: analysis.GapMissingContent, Description: "Entropia assente", Severity: "alta", ModuleRef: "2"},
		{Type: analysis.GapMissingResources},
	}}})
	require.Len(t, gaps, 2)
	assert.Equal(t, GapInfo{Type: GapCoverage, Topic: "2", Importance: "ALTA", Description: "Entropia assente"}, gaps[0])
	assert.Equal(t, analysis.NotSpecified, gaps[1].Topic)
	assert.Equal(t, "MEDIA", gaps[1].Importance)
}

type fixture struct {
	analyses  *memory.AnalysisRepository
	profiles  *settings.ProfileService
	client    *llm.MockLLMClient
	generator *Generator
}

func newFixture(t *testing.T, withProfile bool) *fixture {
	t.Helper()
	analyses := memory.NewAnalysisRepository(nil)
	profiles := settings.NewProfileService(memory.NewPromoterRepository(), nil)
	if withProfile {
		_, err := profiles.Save(context.Background(), promoter.Profile{FullName: "Giulia Conti", Phone: "051 000000"})
		require.NoError(t, err)
	}
	client := &llm.MockLLMClient{Replies: map[string]string{prompts.MarkerEmail: emailReply}}
	return &fixture{
		analyses:  analyses,
		profiles:  profiles,
		client:    client,
		generator: NewGenerator(analyses, profiles, client, settings.Static("Zanichelli"), "gpt-4o", 0, nil),
	}
}

func (f *fixture) plant(t *testing.T, id int64) analysis.Record {
	t.Helper()
	rec, err := analysis.NewRecord(analysis.Result{
		Metadata: analysis.Metadata{Subject: "Chimica Generale"},
		Commercial: analysis.Phase3{
			Gaps: []analysis.Gap{{Type: analysis.GapInsufficientDepth, Description: "Termodinamica superficiale", Severity: "alta"}},
			Opportunity: analysis.Opportunity{
				RecommendedManual: &analysis.RecommendedManual{ID: "1", Title: "Chimica", Author: "Bianchi"},
				Strengths:         []analysis.CompetitiveEdge{{Area: "Esercizi", Description: "Oltre 500 esercizi svolti"}},
			},
			PostIt: "Puntare sugli esercizi",
		},
	})
	require.NoError(t, err)
	rec.ID = id
	rec.ProgramTitle = "Chimica Generale e Inorganica"
	rec.Professor = "Mario Verdi"
	rec.Publisher = "Zanichelli"
	f.analyses.Put(rec)
	return rec
}

func TestGenerateStoresEmail(t *testing.T) {
	f := newFixture(t, true)
	f.plant(t, 7)

	email, err := f.generator.Generate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Termodinamica: una proposta per il suo corso", email.Subject)
	assert.Equal(t, "depth_gap", email.PrimaryGap)
	assert.Equal(t, analysis.FlexStrings{"coverage_gap"}, email.SecondaryGaps)

	require.Equal(t, 1, f.client.CallCount())
	prompt := f.client.Calls[0]
	assert.Contains(t, prompt, prompts.MarkerEmail)
	assert.Contains(t, prompt, `"nome": "Giulia Conti"`)
	assert.Contains(t, prompt, `"titolo": "Chimica"`)
	assert.Contains(t, prompt, "Oltre 500 esercizi svolti")
	assert.Contains(t, prompt, `"type": "depth_gap"`)
	assert.Contains(t, prompt, `"nomeDocente": "Mario Verdi"`)

	stored, err := f.analyses.GetByID(context.Background(), 7)
	require.NoError(t, err)
	decoded := stored.Decode()
	require.NotNil(t, decoded.Result.Email)
	assert.Equal(t, email.Body, decoded.Result.Email.Body)
	assert.Equal(t, "Puntare sugli esercizi", decoded.Result.Commercial.PostIt)
}

func TestGenerateOverwritesPreviousEmail(t *testing.T) {
	f := newFixture(t, true)
	rec := f.plant(t, 3)
	rec.GeneratedEmail = json.RawMessage(`{"oggetto":"vecchia"}`)
	f.analyses.Put(rec)

	_, err := f.generator.Generate(context.Background(), 3)
	require.NoError(t, err)

	stored, err := f.analyses.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Termodinamica: una proposta per il suo corso", stored.Decode().Result.Email.Subject)
	assert.JSONEq(t, string(rec.CommercialAnalysis), string(stored.CommercialAnalysis))
}

func TestGenerateRequiresProfile(t *testing.T) {
	f := newFixture(t, false)
	f.plant(t, 1)

	_, err := f.generator.Generate(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, settings.MsgProfileMissing, errors.UserMessage(err))
	assert.Equal(t, 0, f.client.CallCount())
}

func TestGenerateUnknownAnalysis(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.generator.Generate(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, MsgAnalysisNotFound, errors.UserMessage(err))
}

func TestGenerateMalformedCommercialSection(t *testing.T) {
	f := newFixture(t, true)
	rec := f.plant(t, 4)
	rec.CommercialAnalysis = json.RawMessage(`{"gap_identificati": "nope"`)
	f.analyses.Put(rec)

	_, err := f.generator.Generate(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, errors.CodeMalformedData, errors.GetCode(err))
	assert.Equal(t, 0, f.client.CallCount())
}

func TestGenerateBadReplyKeepsStoredEmail(t *testing.T) {
	f := newFixture(t, true)
	f.plant(t, 5)
	f.client.Replies[prompts.MarkerEmail] = "niente json"

	_, err := f.generator.Generate(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, llm.MsgParseFailure, errors.UserMessage(err))

	stored, err := f.analyses.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, stored.Decode().Result.Email)
}
