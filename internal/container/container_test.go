package container

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"uniscan/adapters/llm"
	"uniscan/app/export"
	"uniscan/app/presentation"
	"uniscan/app/workflow"
	"uniscan/domain/bibliography"
	"uniscan/domain/catalog"
	"uniscan/domain/core"
	"uniscan/domain/submission"
	"uniscan/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AI:        config.AIConfig{Model: "gpt-4o", MaxTokens: 4000},
		Cache:     config.CacheConfig{HistoryTTL: time.Minute},
		Workflow:  config.WorkflowConfig{PipelineTimeout: 5 * time.Second, SessionIdleTimeout: time.Hour},
		Publisher: config.PublisherConfig{Default: "Zanichelli"},
	}
}

func TestInMemoryContainerRunsAnalysisEndToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	c.WithLLM(&llm.MockLLMClient{Default: `{"sintesi_profilo": "Docente pratico", "copertura_totale": 64, "post_it": "Proporre Bianchi"}`})

	cat, err := c.InitInMemory(ctx)
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	subject, err := cat.CreateSubject(ctx, &catalog.Subject{Name: "Chimica Generale"})
	require.NoError(t, err)
	_, err = cat.ActivateFramework(ctx, &catalog.Framework{SubjectID: subject.ID, Name: "Chimica", Content: json.RawMessage(`{"modules":[]}`)})
	require.NoError(t, err)

	// warm the history cache so the run has to invalidate it
	list, err := c.History.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	wf := c.Workflows.Get(core.NewSessionID())
	require.NoError(t, wf.Submit(submission.Form{
		SubjectID: subject.ID,
		Title:     "Chimica Generale e Inorganica",
		Content:   strings.Repeat("Struttura atomica e legame chimico. ", 5),
	}))
	wf.Wait()

	snap := wf.Snapshot()
	require.Equal(t, workflow.StateResults, snap.State, snap.Error)
	assert.NotZero(t, snap.AnalysisID)

	list, err = c.History.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Proporre Bianchi", list[0].PostIt)
	assert.Equal(t, 64.0, list[0].TotalCoverage)
}

func TestSubmissionToExportScenario(t *testing.T) {
	ctx := context.Background()
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	c.WithLLM(&llm.MockLLMClient{Default: `{"sintesi_profilo": "Docente rigoroso", "copertura_totale": 72.6, "post_it": "Proporre il nuovo manuale"}`})

	cat, err := c.InitInMemory(ctx)
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	subject, err := cat.CreateSubject(ctx, &catalog.Subject{Name: "Chimica Organica"})
	require.NoError(t, err)
	_, err = cat.ActivateFramework(ctx, &catalog.Framework{SubjectID: subject.ID, Name: "Organica", Content: json.RawMessage(`{"modules":[]}`)})
	require.NoError(t, err)
	manual, err := cat.CreateManual(ctx, &catalog.Manual{SubjectID: subject.ID, Title: "Chimica organica", Author: "Brown", Publisher: "EdiSES"})
	require.NoError(t, err)

	title := "Chimica Organica A.A. 2024/25"
	wf := c.Workflows.Get(core.NewSessionID())
	require.NoError(t, wf.Submit(submission.Form{
		SubjectID: subject.ID,
		Title:     title,
		Content:   strings.Repeat("Alcani e alcheni. ", 7),
		Primary:   bibliography.Slot{ManualID: &manual.ID},
	}))
	wf.Wait()

	snap := wf.Snapshot()
	require.Equal(t, workflow.StateResults, snap.State, snap.Error)

	rec, err := c.History.Get(ctx, snap.AnalysisID)
	require.NoError(t, err)
	doc, err := export.HTML(presentation.Build(*rec, rec.Decode()), time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(doc), title)
	assert.Contains(t, string(doc), "73%")
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestShutdownIsSafeWithSweeper(t *testing.T) {
	ctx := context.Background()
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	c.WithLLM(&llm.MockLLMClient{})
	_, err = c.InitInMemory(ctx)
	require.NoError(t, err)

	c.StartSweeper(10 * time.Millisecond)
	c.Workflows.Get(core.NewSessionID())
	assert.Equal(t, 1, c.Workflows.Len())
	assert.NoError(t, c.Shutdown(ctx))
}

func TestInitHistoryOnlyRequiresDatabase(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	assert.Error(t, c.InitHistoryOnly(context.Background(), nil))
	assert.Nil(t, c.History)
}
