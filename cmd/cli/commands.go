package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"uniscan/adapters/postgres"
	"uniscan/app/export"
	"uniscan/app/presentation"
	"uniscan/domain/analysis"
	"uniscan/domain/core"
	"uniscan/internal/migration"

	"github.com/jmoiron/sqlx"
)

var errConfirmationRequired = stderrors.New("deletion is permanent: pass --yes to confirm")

var nowFunc = time.Now

// historyStore is the part of the history service the CLI needs
type historyStore interface {
	List(ctx context.Context, limit int) ([]analysis.Summary, error)
	Get(ctx context.Context, id int64) (*analysis.Record, error)
	Delete(ctx context.Context, id int64) error
}

func parseID(s string) (int64, error) {
	id, err := core.ParseRecordID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid analysis id %q", s)
	}
	return id, nil
}

func checkFormat(format string) error {
	if format != export.FormatHTML && format != export.FormatXLSX {
		return fmt.Errorf("unknown format %q (use html or xlsx)", format)
	}
	return nil
}

func runList(ctx context.Context, out io.Writer, h historyStore, limit int) error {
	list, err := h.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "Nessuna analisi salvata")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATA\tMATERIA\tPROGRAMMA\tUNIVERSITÀ\tCOPERTURA")
	for _, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.0f%%\n",
			s.ID, s.CreatedAt.Format("02/01/2006 15:04"), s.SubjectName, s.ProgramTitle, s.University, s.TotalCoverage)
	}
	return tw.Flush()
}

func runShow(ctx context.Context, out io.Writer, h historyStore, id int64) error {
	rec, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	view := presentation.Build(*rec, rec.Decode())

	fmt.Fprintf(out, "%s\n", view.Title)
	fmt.Fprintf(out, "Materia:       %s\n", view.Header.Subject)
	fmt.Fprintf(out, "Corso:         %s\n", view.Header.DegreeCourse)
	fmt.Fprintf(out, "Università:    %s\n", view.Header.University)
	fmt.Fprintf(out, "Docente:       %s\n", view.Header.Professor)
	fmt.Fprintf(out, "Data analisi:  %s\n", view.Header.AnalysisDate)

	if view.Coverage.Available {
		fmt.Fprintf(out, "Copertura:     %d%% (%s)\n", view.Coverage.Total.Value, view.Coverage.Total.Label)
	} else {
		fmt.Fprintf(out, "Copertura:     %s\n", presentation.Unavailable)
	}

	if !view.Strategy.Available {
		fmt.Fprintf(out, "Strategia:     %s\n", presentation.Unavailable)
		return nil
	}
	if view.Strategy.PostIt != "" {
		fmt.Fprintf(out, "\nPost-it:\n%s\n", strings.TrimSpace(view.Strategy.PostIt))
	}
	if len(view.Strategy.Gaps) > 0 {
		fmt.Fprintf(out, "\nGap (%d):\n", len(view.Strategy.Gaps))
		for _, g := range view.Strategy.Gaps {
			fmt.Fprintf(out, "  - [%s] %s\n", g.Severity.Label, g.Description)
		}
	}
	if view.Email != nil {
		fmt.Fprintln(out, "\nEmail generata: sì")
	}
	return nil
}

func runDelete(ctx context.Context, out io.Writer, h historyStore, id int64) error {
	if err := h.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Analisi %d eliminata\n", id)
	return nil
}

// runExport writes the document to outDir and returns its path
func runExport(ctx context.Context, h historyStore, id int64, format, outDir string, now time.Time) (string, error) {
	rec, err := h.Get(ctx, id)
	if err != nil {
		return "", err
	}
	view := presentation.Build(*rec, rec.Decode())

	var data []byte
	switch format {
	case export.FormatHTML:
		data, err = export.HTML(view, now)
	case export.FormatXLSX:
		data, err = export.XLSX(view)
	default:
		err = checkFormat(format)
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, export.Filename(view.Title, now, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func runMigrate(ctx context.Context, out io.Writer, db *sqlx.DB, runner *migration.MigrationRunner, reset bool, catalogDir string) error {
	if reset {
		if err := runner.Reset(ctx, db); err != nil {
			return err
		}
		fmt.Fprintln(out, "Tables dropped")
	}
	if err := runner.Run(ctx, db); err != nil {
		return err
	}
	fmt.Fprintf(out, "Schema %s ready\n", runner.Version())

	if catalogDir == "" {
		return nil
	}
	files, err := migration.FindCatalogFiles(catalogDir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}
	stats, err := migration.ImportCatalog(ctx, postgres.NewCatalogRepository(db), files, func(path string, err error) {
		fmt.Fprintf(out, "skipped %s: %v\n", filepath.Base(path), err)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d subjects, %d frameworks, %d manuals (%d files skipped)\n",
		stats.Subjects, stats.Frameworks, stats.Manuals, stats.Skipped)
	return nil
}
