package migration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"uniscan/domain/catalog"
	"uniscan/internal/errors"
	"uniscan/ports"
)

// CatalogFile is one subject as exported from the catalog tooling: the
// subject, its reference framework and its textbooks
type CatalogFile struct {
	Subject struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"subject"`
	Framework *struct {
		Name    string          `json:"name"`
		Content json.RawMessage `json:"content"`
	} `json:"framework"`
	Manuals []catalog.Manual `json:"manuals"`
}

// ImportStats reports what an import did
type ImportStats struct {
	Subjects   int
	Frameworks int
	Manuals    int
	Skipped    int
}

// FindCatalogFiles lists the .json files under dir
func FindCatalogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// LoadCatalogFile reads and checks a single catalog file
func LoadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f CatalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.MalformedData(filepath.Base(path), err)
	}
	if strings.TrimSpace(f.Subject.Name) == "" {
		return nil, errors.ValidationError(filepath.Base(path) + ": subject name is required")
	}
	if f.Framework != nil && len(f.Framework.Content) > 0 && !json.Valid(f.Framework.Content) {
		return nil, errors.MalformedData(filepath.Base(path)+" framework", nil)
	}
	return &f, nil
}

// ImportCatalog stores subjects, frameworks and manuals from the given files.
// A file that cannot be read is skipped and counted; a write error aborts.
func ImportCatalog(ctx context.Context, w ports.CatalogWriter, files []string, onSkip func(path string, err error)) (ImportStats, error) {
	var stats ImportStats
	for _, path := range files {
		f, err := LoadCatalogFile(path)
		if err != nil {
			stats.Skipped++
			if onSkip != nil {
				onSkip(path, err)
			}
			continue
		}

		subject, err := w.CreateSubject(ctx, &catalog.Subject{
			Name:        strings.TrimSpace(f.Subject.Name),
			Description: f.Subject.Description,
		})
		if err != nil {
			return stats, errors.Wrapf(err, "failed to store subject %q", f.Subject.Name)
		}
		stats.Subjects++

		if f.Framework != nil && len(f.Framework.Content) > 0 {
			name := f.Framework.Name
			if name == "" {
				name = subject.Name
			}
			if _, err := w.ActivateFramework(ctx, &catalog.Framework{
				SubjectID: subject.ID,
				Name:      name,
				Content:   f.Framework.Content,
			}); err != nil {
				return stats, errors.Wrapf(err, "failed to store framework of %q", subject.Name)
			}
			stats.Frameworks++
		}

		for _, m := range f.Manuals {
			if strings.TrimSpace(m.Title) == "" {
				continue
			}
			m.ID = 0
			m.SubjectID = subject.ID
			if _, err := w.CreateManual(ctx, &m); err != nil {
				return stats, errors.Wrapf(err, "failed to store manual %q", m.Title)
			}
			stats.Manuals++
		}
	}
	return stats, nil
}
