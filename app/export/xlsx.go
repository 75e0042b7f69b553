package export

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"uniscan/app/presentation"
	"uniscan/internal/errors"
)

// Sheet names of the workbook
const (
	SheetSummary  = "Sintesi"
	SheetCoverage = "Copertura"
	SheetGaps     = "Gap"
	SheetStrategy = "Strategia"
	SheetEmail    = "Email"
)

var bandFills = map[string]string{
	"green":  "#D1FAE5",
	"yellow": "#FEF3C7",
	"red":    "#FEE2E2",
	"gray":   "#F3F4F6",
}

type workbook struct {
	f      *excelize.File
	bold   int
	fills  map[string]int
	sheet  string
	row    int
	failed error
}

// XLSX builds the workbook of an analysis. The Email sheet exists only when
// an email is stored with the analysis.
func XLSX(view presentation.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	wb := &workbook{f: f, fills: map[string]int{}}
	if err := wb.styles(); err != nil {
		return nil, errors.Wrap(err, "create workbook styles")
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, errors.Wrap(err, "rename summary sheet")
	}

	wb.use(SheetSummary)
	wb.summary(view)
	wb.add(SheetCoverage)
	wb.coverage(view.Coverage)
	wb.add(SheetGaps)
	wb.gaps(view.Strategy)
	wb.add(SheetStrategy)
	wb.strategy(view.Strategy)
	if view.Email != nil || view.EmailUnavailable {
		wb.add(SheetEmail)
		wb.email(view)
	}
	if wb.failed != nil {
		return nil, errors.Wrap(wb.failed, "write workbook")
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encode workbook")
	}
	return buf.Bytes(), nil
}

func (w *workbook) styles() error {
	var err error
	if w.bold, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	for color, hex := range bandFills {
		id, err := w.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
		})
		if err != nil {
			return err
		}
		w.fills[color] = id
	}
	return nil
}

func (w *workbook) use(sheet string) {
	w.sheet = sheet
	w.row = 0
}

func (w *workbook) add(sheet string) {
	if w.failed != nil {
		return
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		w.failed = err
		return
	}
	w.use(sheet)
}

// put writes the next row and returns its number
func (w *workbook) put(values ...interface{}) int {
	w.row++
	if w.failed != nil {
		return w.row
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.failed = err
		return w.row
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.failed = err
	}
	return w.row
}

func (w *workbook) header(values ...interface{}) {
	row := w.put(values...)
	if w.failed != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	if err := w.f.SetCellStyle(w.sheet, first, last, w.bold); err != nil {
		w.failed = err
	}
}

func (w *workbook) fill(col, row int, color string) {
	if w.failed != nil {
		return
	}
	style, ok := w.fills[color]
	if !ok {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := w.f.SetCellStyle(w.sheet, cell, cell, style); err != nil {
		w.failed = err
	}
}

func (w *workbook) width(cols string, width float64) {
	if w.failed != nil {
		return
	}
	parts := strings.SplitN(cols, ":", 2)
	if err := w.f.SetColWidth(w.sheet, parts[0], parts[len(parts)-1], width); err != nil {
		w.failed = err
	}
}

func (w *workbook) summary(v presentation.View) {
	w.width("A", 28)
	w.width("B", 80)
	w.header("Campo", "Valore")
	w.put("Programma", v.Title)
	w.put("Materia", v.Header.Subject)
	w.put("Corso di laurea", v.Header.DegreeCourse)
	w.put("Ateneo", v.Header.University)
	w.put("Docente", v.Header.Professor)
	w.put("Data analisi", v.Header.AnalysisDate)
	if v.Header.Publisher != "" {
		w.put("Editore", v.Header.Publisher)
	}
	if v.Header.SystemVersion != "" {
		w.put("Versione", v.Header.SystemVersion)
	}
	if v.BibliographyUnavailable {
		w.put("Bibliografia indicata", presentation.Unavailable)
	}
	for _, line := range v.Bibliography {
		label := "Manuale alternativo"
		if line.Primary {
			label = "Manuale principale"
		}
		w.put(label, line.Text)
	}

	if !v.Strategy.Available {
		w.put("Post-it", presentation.Unavailable)
	} else {
		w.put("Post-it", v.Strategy.PostIt)
		w.put("Insight principale", v.Strategy.KeyInsight)
		if r := v.Strategy.Recommended; r != nil {
			w.put("Manuale consigliato", r.Title+" - "+r.Author)
		}
		if fit := v.Strategy.PedagogicalFit; fit != nil {
			w.put("Allineamento profilo pedagogico (%)", fit.Value)
		}
	}

	if !v.Profile.Available {
		w.put("Profilo docente", presentation.Unavailable)
		return
	}
	if v.Profile.Summary != "" {
		w.put("Profilo docente", v.Profile.Summary)
	}
	for _, fact := range v.Profile.Facts {
		w.put(fact.Label, fact.Value)
	}
	for _, c := range v.Profile.Confidences {
		w.put("Affidabilità "+strings.ToLower(c.Label)+" (%)", c.Value)
	}
}

func (w *workbook) coverage(c presentation.CoverageView) {
	w.width("A:B", 30)
	w.width("C:H", 40)
	if !c.Available {
		w.put(presentation.Unavailable)
		return
	}
	row := w.put("Copertura totale (%)", c.Total.Value, c.Total.Label)
	w.fill(2, row, c.Total.Color)
	if s := c.Stats; s != nil {
		w.put("Media moduli (%)", s.Mean)
		w.put("Mediana moduli (%)", s.Median)
	}
	if d := c.Distribution; d != nil {
		w.put("Distribuzione (intro/interm/avanz)", d.Introductory, d.Intermediate, d.Advanced)
	}
	if a := c.Adopted; a != nil {
		row := w.put("Manuale adottato", a.Title+" - "+a.Author, a.Alignment.Value)
		w.fill(3, row, a.Alignment.Color)
		if a.Notes != "" {
			w.put("Note manuale adottato", a.Notes)
		}
	}
	w.put()
	w.header("Modulo", "Copertura (%)", "Valutazione", "Argomenti coperti", "Argomenti omessi", "Profondità", "Argomenti extra", "Note")
	for _, m := range c.Modules {
		row := w.put(m.Name, m.Coverage.Value, m.Coverage.Label, strings.Join(m.Covered, ", "), strings.Join(m.Omitted, ", "), m.Depth,
			strings.Join(m.Extra, ", "), m.Notes)
		w.fill(2, row, m.Coverage.Color)
	}
}

func (w *workbook) gaps(s presentation.StrategyView) {
	w.width("A", 26)
	w.width("B", 60)
	w.width("C:E", 24)
	if !s.Available {
		w.put(presentation.Unavailable)
		return
	}
	w.header("Tipo", "Descrizione", "Gravità", "Modulo", "Impatto commerciale")
	for _, g := range s.Gaps {
		row := w.put(g.TypeLabel, g.Description, g.Severity.Label, g.Module, g.Impact)
		w.fill(3, row, g.Severity.Color)
	}
}

func (w *workbook) strategy(s presentation.StrategyView) {
	w.width("A", 10)
	w.width("B:E", 40)
	if !s.Available {
		w.put(presentation.Unavailable)
		return
	}
	w.header("Fase", "Azione", "Contenuto", "Materiali", "Obiettivo")
	for _, step := range s.Steps {
		w.put(step.Number, step.Action, step.Content, strings.Join(step.Materials, ", "), step.Goal)
	}
	if len(s.Arguments) > 0 {
		w.put()
		w.header("Ordine", "Argomentazione", "Supporto", "Impatto")
		for _, a := range s.Arguments {
			row := w.put(a.Order, a.Message, a.Support, a.Impact.Label)
			w.fill(4, row, a.Impact.Color)
		}
	}
	if len(s.Strengths) > 0 {
		w.put()
		w.header("Area", "Punto di forza", "Rilevanza")
		for _, p := range s.Strengths {
			w.put(p.Area, p.Description, p.Relevance)
		}
	}
	if e := s.AdoptedEvaluation; e != nil {
		w.put()
		w.header("Valutazione manuale adottato")
		w.put("Punti di forza", strings.Join(e.Strengths, "; "))
		w.put("Punti deboli", strings.Join(e.Weaknesses, "; "))
		w.put("Gap", strings.Join(e.Gaps, "; "))
	}
	if len(s.WatchPoints) > 0 {
		w.put()
		w.put("Punti di attenzione", strings.Join(s.WatchPoints, "; "))
	}
}

func (w *workbook) email(v presentation.View) {
	w.width("A", 20)
	w.width("B", 100)
	if v.Email == nil {
		w.put(presentation.Unavailable)
		return
	}
	w.put("Oggetto", v.Email.Subject)
	w.put("Corpo", v.Email.Body)
	w.put("Gap primario", v.Email.PrimaryGap)
	w.put("Gap secondari", strings.Join(v.Email.SecondaryGaps, ", "))
	w.put("Note", v.Email.Notes)
}
