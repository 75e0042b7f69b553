package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"uniscan/adapters/memory"
	"uniscan/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chimicaFile = `{
  "subject": {"name": "Chimica Generale", "description": "Primo anno"},
  "framework": {
    "name": "Framework Chimica",
    "content": {"classes_analyzed": ["L-27_Scienze_Chimiche"], "modules": [{"name": "Atomo"}]}
  },
  "manuals": [
    {"title": "Chimica", "author": "Rossi", "publisher": "Zanichelli", "year": 2022},
    {"title": "Fondamenti di chimica", "author": "Bianchi", "publisher": "EdiSES"},
    {"title": "  "}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chimica.json", chimicaFile)
	writeFile(t, dir, "rotto.json", `{"subject": `)
	writeFile(t, dir, "note.txt", "ignored")

	files, err := FindCatalogFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	repo := memory.NewCatalogRepository()
	var skipped []string
	stats, err := ImportCatalog(context.Background(), repo, files, func(path string, err error) {
		skipped = append(skipped, filepath.Base(path))
	})
	require.NoError(t, err)

	assert.Equal(t, ImportStats{Subjects: 1, Frameworks: 1, Manuals: 2, Skipped: 1}, stats)
	assert.Equal(t, []string{"rotto.json"}, skipped)

	ctx := context.Background()
	subjects, err := repo.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)

	fw, err := repo.GetActiveFramework(ctx, subjects[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"L-27 Scienze Chimiche"}, fw.DegreeClasses())
	assert.Equal(t, 1, fw.ModuleCount())

	manuals, err := repo.ListManualsBySubject(ctx, subjects[0].ID, "Zanichelli")
	require.NoError(t, err)
	assert.Len(t, manuals, 2)
}

func TestImportCatalogIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chimica.json", chimicaFile)
	repo := memory.NewCatalogRepository()

	for i := 0; i < 2; i++ {
		_, err := ImportCatalog(context.Background(), repo, []string{path}, nil)
		require.NoError(t, err)
	}

	subjects, err := repo.ListSubjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
	fw, err := repo.GetActiveFramework(context.Background(), subjects[0].ID)
	require.NoError(t, err)
	assert.True(t, fw.IsActive)
}

func TestLoadCatalogFileRequiresSubject(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vuoto.json", `{"subject": {"name": ""}}`)

	_, err := LoadCatalogFile(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidationError))
}
