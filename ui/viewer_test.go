package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"uniscan/adapters/cache"
	"uniscan/adapters/memory"
	"uniscan/app/history"
	"uniscan/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViewer(t *testing.T) (*Viewer, *memory.AnalysisRepository) {
	t.Helper()
	repo := memory.NewAnalysisRepository(nil)
	v, err := NewViewer(history.NewService(repo, cache.NewMemory(), time.Minute, nil), nil)
	require.NoError(t, err)
	return v, repo
}

func serve(v *Viewer, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	v.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestViewerListsAndServesReports(t *testing.T) {
	v, repo := newViewer(t)
	rec, err := analysis.NewRecord(richResult())
	require.NoError(t, err)
	rec.ProgramTitle = "Chimica Organica"
	stored, err := repo.Create(context.Background(), &rec)
	require.NoError(t, err)

	w := serve(v, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chimica Organica")
	assert.Contains(t, w.Body.String(), `href="/analyses/`+itoa(stored.ID)+`"`)

	w = serve(v, "/analyses/"+itoa(stored.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-section="post-it"`)
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	w = serve(v, "/analyses/"+itoa(stored.ID)+"/xlsx")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "analisi_Chimica_Organica_")
}

func TestViewerNotFound(t *testing.T) {
	v, _ := newViewer(t)
	for _, path := range []string{"/analyses/42", "/analyses/x", "/analyses/42/xlsx", "/altro"} {
		w := serve(v, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), `data-page="not-found"`, path)
	}
}
