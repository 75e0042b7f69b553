package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"uniscan/adapters/cache"
	"uniscan/adapters/memory"
	"uniscan/app/history"
	"uniscan/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*history.Service, int64) {
	t.Helper()
	repo := memory.NewAnalysisRepository(nil)
	rec, err := analysis.NewRecord(analysis.Result{
		Metadata:  analysis.Metadata{AnalysisDate: "2026-03-14", Subject: "Chimica Generale", University: "Università di Padova"},
		Technical: analysis.Phase2{TotalCoverage: 64},
		Commercial: analysis.Phase3{
			PostIt: "Proporre Bianchi",
			Gaps:   []analysis.Gap{{Type: analysis.GapInsufficientDepth, Description: "Entropia superficiale", Severity: "alta"}},
		},
	})
	require.NoError(t, err)
	rec.ProgramTitle = "Chimica Generale e Inorganica"
	stored, err := repo.Create(context.Background(), &rec)
	require.NoError(t, err)
	return history.NewService(repo, cache.NewMemory(), time.Minute, nil), stored.ID
}

func TestRunList(t *testing.T) {
	h, _ := newStore(t)
	var out bytes.Buffer

	require.NoError(t, runList(context.Background(), &out, h, 0))
	assert.Contains(t, out.String(), "COPERTURA")
	assert.Contains(t, out.String(), "Chimica Generale e Inorganica")
	assert.Contains(t, out.String(), "64%")
}

func TestRunListEmpty(t *testing.T) {
	h := history.NewService(memory.NewAnalysisRepository(nil), nil, 0, nil)
	var out bytes.Buffer

	require.NoError(t, runList(context.Background(), &out, h, 10))
	assert.Equal(t, "Nessuna analisi salvata\n", out.String())
}

func TestRunShow(t *testing.T) {
	h, id := newStore(t)
	var out bytes.Buffer

	require.NoError(t, runShow(context.Background(), &out, h, id))
	assert.Contains(t, out.String(), "Chimica Generale e Inorganica")
	assert.Contains(t, out.String(), "Proporre Bianchi")
	assert.Contains(t, out.String(), "Entropia superficiale")

	assert.Error(t, runShow(context.Background(), &out, h, id+100))
}

func TestRunDelete(t *testing.T) {
	h, id := newStore(t)
	var out bytes.Buffer

	require.NoError(t, runDelete(context.Background(), &out, h, id))
	list, err := h.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Error(t, runDelete(context.Background(), &out, h, id))
}

func TestRunExport(t *testing.T) {
	h, id := newStore(t)
	dir := filepath.Join(t.TempDir(), "report")
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	path, err := runExport(context.Background(), h, id, "html", dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "analisi_Chimica_Generale_e_Inorganica_2026-03-14.html"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Proporre Bianchi")

	path, err = runExport(context.Background(), h, id, "xlsx", dir, now)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestParseAndFormatChecks(t *testing.T) {
	_, err := parseID("abc")
	assert.Error(t, err)
	id, err := parseID("7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	assert.NoError(t, checkFormat("xlsx"))
	assert.Error(t, checkFormat("pdf"))
}

func TestDeleteRequiresYes(t *testing.T) {
	cmd := newHistoryCmd()
	cmd.SetArgs([]string{"delete", "3"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorIs(t, err, errConfirmationRequired)
}
