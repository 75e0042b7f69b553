// Package export turns an analysis view into standalone files: a static HTML
// report and an XLSX workbook.
package export

import (
	"bytes"
	"embed"
	"html/template"
	"regexp"
	"time"

	"uniscan/app/presentation"
	"uniscan/internal/errors"
)

//go:embed templates/report.html
var templateFS embed.FS

// Export formats
const (
	FormatHTML = "html"
	FormatXLSX = "xlsx"
)

var report = template.Must(template.Must(presentation.ParseSections(
	template.New("report.html").Funcs(presentation.Funcs()),
)).ParseFS(templateFS, "templates/report.html"))

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// Filename is analisi_<title>_<YYYY-MM-DD>.<ext>, every character of the
// title outside [A-Za-z0-9] replaced by an underscore.
func Filename(title string, generatedAt time.Time, ext string) string {
	return "analisi_" + unsafeChars.ReplaceAllString(title, "_") + "_" + generatedAt.Format("2006-01-02") + "." + ext
}

// HTML renders the standalone report. The output depends only on the view,
// except for the export timestamp in the footer.
func HTML(view presentation.View, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		View        presentation.View
		GeneratedAt string
	}{view, generatedAt.Format("02/01/2006 15:04")}
	if err := report.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "render html report")
	}
	return buf.Bytes(), nil
}
