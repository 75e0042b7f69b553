// Package presentation derives the renderable view of a stored analysis.
// The interactive pages, the HTML export and the workbook all read the same
// View, so a section shown by one renderer is shown by every renderer.
package presentation

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"uniscan/domain/analysis"
)

// Unavailable replaces a section whose stored data cannot be read
const Unavailable = "Non disponibile"

// Percent is a rounded percentage with its band
type Percent struct {
	Value int
	Band  analysis.Band
	Color string
	Label string
}

// Level is a normalized severity or impact label
type Level struct {
	Text  string
	Band  analysis.Band
	Color string
	Label string
}

// View is everything a renderer needs to show one analysis
type View struct {
	ID           int64
	Title        string
	Header       Header
	Bibliography []BibliographyLine
	// BibliographyUnavailable is set when the stored references cannot be read
	BibliographyUnavailable bool
	Profile      ProfileView
	Coverage     CoverageView
	Strategy     StrategyView
	Email        *EmailView
	// EmailUnavailable is set when a stored email exists but cannot be read
	EmailUnavailable bool
	CreatedAt        time.Time
}

type Header struct {
	Subject       string
	DegreeCourse  string
	University    string
	Professor     string
	AnalysisDate  string
	Publisher     string
	SystemVersion string
}

// BibliographyLine is one reference as the operator entered it
type BibliographyLine struct {
	Primary bool
	Text    string
}

type ProfileView struct {
	Available   bool
	Summary     string
	Facts       []Fact
	Methods     []string
	Confidences []Confidence
}

// Confidence is how sure the model was about one profile dimension
type Confidence struct {
	Label string
	Value int
}

// Fact is a labelled value
type Fact struct {
	Label string
	Value string
}

type CoverageView struct {
	Available        bool
	Total            Percent
	Modules          []ModuleRow
	Stats            *ModuleStats
	WellCovered      []string
	PartiallyCovered []string
	Omitted          []string
	Depth            string
	Distribution     *DistributionView
	Adopted          *AdoptedManualView
	Summary          string
}

type ModuleRow struct {
	ID       string
	Name     string
	Coverage Percent
	Covered  []string
	Omitted  []string
	Extra    []string
	Depth    string
	Notes    string
}

// ModuleStats summarizes the per-module percentages
type ModuleStats struct {
	Mean   int
	Median int
	Min    int
	Max    int
}

// DistributionView is the depth distribution scaled to 100
type DistributionView struct {
	Introductory int
	Intermediate int
	Advanced     int
}

type AdoptedManualView struct {
	Title          string
	Author         string
	Publisher      string
	Year           string
	Alignment      Percent
	ChaptersUsed   []string
	ChaptersUnused []string
	NotInManual    []string
	Notes          string
}

type StrategyView struct {
	Available         bool
	KeyInsight        string
	PostIt            string
	PostItHTML        template.HTML
	Gaps              []GapCard
	AdoptedEvaluation *EvaluationView
	Bibliography      *BibliographyAnalysisView
	Recommended       *RecommendedView
	Strengths         []StrengthView
	PedagogicalFit    *Percent
	Arguments         []ArgumentView
	Steps             []StepView
	WatchPoints       []string
}

type GapCard struct {
	Type        string
	TypeLabel   string
	Description string
	Severity    Level
	Module      string
	Impact      string
}

type EvaluationView struct {
	Strengths  []string
	Weaknesses []string
	Gaps       []string
}

type BibliographyAnalysisView struct {
	Primary            *BibliographyEntryView
	Alternatives       []BibliographyEntryView
	Position           string
	CompetitiveSummary string
}

type BibliographyEntryView struct {
	Title      string
	Author     string
	Publisher  string
	Type       string
	Assessment string
	Comparison string
}

type RecommendedView struct {
	Title  string
	Author string
}

type StrengthView struct {
	Area        string
	Description string
	Relevance   string
}

type ArgumentView struct {
	Order   int
	Message string
	Support string
	Impact  Level
}

type StepView struct {
	Number    int
	Action    string
	Content   string
	Materials []string
	Goal      string
}

type EmailView struct {
	Subject       string
	Body          string
	BodyHTML      template.HTML
	PrimaryGap    string
	SecondaryGaps []string
	Notes         string
}

// Build derives the view of a stored analysis. It is pure: the same record
// always yields the same view.
func Build(rec analysis.Record, decoded analysis.Decoded) View {
	res := decoded.Result
	v := View{
		ID:        rec.ID,
		Title:     firstNonEmpty(rec.ProgramTitle, rec.SubjectName, "Analisi"),
		Header:    header(rec, decoded),
		CreatedAt: rec.CreatedAt,
	}

	bib := decoded.Bibliography
	if !decoded.Available(analysis.SectionBibliography) {
		v.BibliographyUnavailable = true
	}
	for i, ref := range bib.Ordered() {
		line := BibliographyLine{Primary: i == 0 && bib.Primary != nil}
		switch {
		case ref.IsCatalog():
			line.Text = "Manuale a catalogo n. " + strconv.FormatInt(ref.ManualID, 10)
		case ref.IsCustom():
			line.Text = customLine(ref.Title, ref.Author, ref.Publisher)
		default:
			continue
		}
		v.Bibliography = append(v.Bibliography, line)
	}

	if decoded.Available(analysis.SectionContextual) {
		v.Profile = profile(res.Contextual)
	}
	if decoded.Available(analysis.SectionTechnical) {
		v.Coverage = coverage(res.Technical)
	}
	if decoded.Available(analysis.SectionCommercial) {
		v.Strategy = strategy(res.Commercial)
	}

	if !decoded.Available(analysis.SectionEmail) {
		v.EmailUnavailable = true
	} else if e := res.Email; e != nil {
		v.Email = &EmailView{
			Subject:       e.Subject,
			Body:          e.Body,
			BodyHTML:      Markdown(e.Body),
			PrimaryGap:    e.PrimaryGap,
			SecondaryGaps: nonEmpty(e.SecondaryGaps),
			Notes:         e.PromoterNotes,
		}
	}
	return v
}

func header(rec analysis.Record, decoded analysis.Decoded) Header {
	m := decoded.Result.Metadata
	if !decoded.Available(analysis.SectionMetadata) {
		m = analysis.Metadata{AnalysisDate: Unavailable}
	}
	date := m.AnalysisDate
	if date == "" && !rec.CreatedAt.IsZero() {
		date = rec.CreatedAt.Format("2006-01-02")
	}
	return Header{
		Subject:       firstNonEmpty(m.Subject, rec.SubjectName, analysis.NotSpecified),
		DegreeCourse:  firstNonEmpty(m.DegreeCourse, rec.DegreeCourse, analysis.NotSpecified),
		University:    firstNonEmpty(m.University, rec.University, analysis.NotSpecified),
		Professor:     firstNonEmpty(m.Professor, rec.Professor, analysis.NotSpecified),
		AnalysisDate:  firstNonEmpty(date, analysis.NotSpecified),
		Publisher:     rec.Publisher,
		SystemVersion: m.SystemVersion,
	}
}

func profile(p analysis.Phase1) ProfileView {
	view := ProfileView{Available: true, Summary: p.ProfileSummary, Methods: nonEmpty(p.Priorities.Methods)}
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			view.Facts = append(view.Facts, Fact{Label: label, Value: value})
		}
	}
	add("Approccio principale", p.Philosophy.MainApproach)
	add("Teoria / pratica", p.Philosophy.TheoryPracticeMix)
	add("Rigore", p.Philosophy.Rigor)
	add("Accessibilità", p.Philosophy.Accessibility)
	add("Applicazioni", p.Philosophy.ApplicationEmphasis)
	add("Interdisciplinarità", p.Philosophy.Interdisciplinarity)
	add("Scuola di pensiero", p.Philosophy.SchoolOfThought)
	add("Profondità vs ampiezza", p.Priorities.DepthVsBreadth)
	add("Sequenza didattica", p.Priorities.Sequence)
	add("Corso di laurea", p.Students.DegreeCourse)
	add("Anno", p.Students.Year.String())
	add("Ateneo", p.Institution.University)
	add("Dipartimento", p.Institution.Department)

	confidence := func(label string, v analysis.FlexNumber) {
		c := v.Float()
		if c <= 0 {
			return
		}
		if c <= 1 {
			c *= 100
		}
		view.Confidences = append(view.Confidences, Confidence{Label: label, Value: analysis.RoundPercent(c)})
	}
	confidence("Filosofia didattica", p.Philosophy.Confidence)
	confidence("Priorità pedagogiche", p.Priorities.Confidence)
	confidence("Studenti", p.Students.Confidence)
	confidence("Contesto istituzionale", p.Institution.Confidence)
	return view
}

func coverage(p analysis.Phase2) CoverageView {
	view := CoverageView{
		Available:        true,
		Total:            percent(p.TotalCoverage.Float()),
		WellCovered:      nonEmpty(p.WellCovered),
		PartiallyCovered: nonEmpty(p.PartiallyCovered),
		Omitted:          nonEmpty(p.Omitted),
		Depth:            p.DepthBreadth.Overall,
		Distribution:     distribution(p.DepthBreadth.Distribution),
		Summary:          p.TechnicalSummary,
	}

	values := make([]float64, 0, len(p.Modules))
	for _, m := range p.Modules {
		pct := m.CoveragePct.Float()
		values = append(values, pct)
		view.Modules = append(view.Modules, ModuleRow{
			ID:       m.ModuleID.String(),
			Name:     firstNonEmpty(m.ModuleName, m.ModuleID.String(), "Modulo"),
			Coverage: percent(pct),
			Covered:  nonEmpty(m.CoveredTopics),
			Omitted:  nonEmpty(m.OmittedTopics),
			Extra:    nonEmpty(m.ExtraTopics),
			Depth:    m.Depth,
			Notes:    m.Notes,
		})
	}
	view.Stats = moduleStats(values)

	if m := p.AdoptedManual; m != nil && strings.TrimSpace(m.Title) != "" {
		view.Adopted = &AdoptedManualView{
			Title:          m.Title,
			Author:         m.Author,
			Publisher:      m.Publisher,
			Year:           m.Year.String(),
			Alignment:      percent(m.ProgramAlignment.Float()),
			ChaptersUsed:   nonEmpty(m.ChaptersUsed),
			ChaptersUnused: nonEmpty(m.ChaptersUnused),
			NotInManual:    nonEmpty(m.TopicsNotInManual),
			Notes:          strings.TrimSpace(m.Notes),
		}
	}
	return view
}

func moduleStats(values []float64) *ModuleStats {
	if len(values) == 0 {
		return nil
	}
	data := stats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil {
		return nil
	}
	median, err := data.Median()
	if err != nil {
		return nil
	}
	lo, _ := data.Min()
	hi, _ := data.Max()
	return &ModuleStats{
		Mean:   analysis.RoundPercent(mean),
		Median: analysis.RoundPercent(median),
		Min:    analysis.RoundPercent(lo),
		Max:    analysis.RoundPercent(hi),
	}
}

// distribution rescales the three levels so they add up to 100. The model
// reports them either as percentages or as module counts.
func distribution(d analysis.Distribution) *DistributionView {
	shares := []float64{d.Introductory.Float(), d.Intermediate.Float(), d.Advanced.Float()}
	for _, s := range shares {
		if s < 0 {
			return nil
		}
	}
	total := floats.Sum(shares)
	if total <= 0 {
		return nil
	}
	floats.Scale(100/total, shares)
	return &DistributionView{
		Introductory: analysis.RoundPercent(shares[0]),
		Intermediate: analysis.RoundPercent(shares[1]),
		Advanced:     analysis.RoundPercent(shares[2]),
	}
}

func strategy(p analysis.Phase3) StrategyView {
	view := StrategyView{
		Available:   true,
		KeyInsight:  p.KeyInsight,
		PostIt:      p.PostIt,
		PostItHTML:  Markdown(p.PostIt),
		WatchPoints: nonEmpty(p.Strategy.WatchPoints),
	}

	for _, g := range p.Gaps {
		view.Gaps = append(view.Gaps, GapCard{
			Type:        g.Type,
			TypeLabel:   analysis.GapTypeLabel(g.Type),
			Description: g.Description,
			Severity:    level(g.Severity),
			Module:      g.ModuleRef.String(),
			Impact:      g.CommercialImpact,
		})
	}

	if e := p.AdoptedEvaluation; e != nil {
		ev := EvaluationView{
			Strengths:  nonEmpty(e.Strengths),
			Weaknesses: nonEmpty(e.Weaknesses),
			Gaps:       nonEmpty(e.Gaps),
		}
		if len(ev.Strengths)+len(ev.Weaknesses)+len(ev.Gaps) > 0 {
			view.AdoptedEvaluation = &ev
		}
	}

	if b := p.Bibliography; b != nil {
		bv := BibliographyAnalysisView{Position: b.PublisherPosition, CompetitiveSummary: b.CompetitiveSummary}
		if b.Primary != nil && b.Primary.Title != "" {
			entry := bibliographyEntry(*b.Primary)
			bv.Primary = &entry
		}
		for _, alt := range b.Alternatives {
			if alt.Title != "" {
				bv.Alternatives = append(bv.Alternatives, bibliographyEntry(alt))
			}
		}
		if bv.Primary != nil || len(bv.Alternatives) > 0 || bv.Position != "" || bv.CompetitiveSummary != "" {
			view.Bibliography = &bv
		}
	}

	opp := p.Opportunity
	if m := opp.RecommendedManual; m != nil && strings.TrimSpace(m.Title) != "" {
		view.Recommended = &RecommendedView{Title: m.Title, Author: m.Author}
	}
	for _, s := range opp.Strengths {
		if s.Area == "" && s.Description == "" {
			continue
		}
		view.Strengths = append(view.Strengths, StrengthView{Area: s.Area, Description: s.Description, Relevance: s.Relevance})
	}
	if fit := opp.PedagogicalFitPct.Float(); fit > 0 {
		pct := percent(fit)
		view.PedagogicalFit = &pct
	}

	for i, a := range p.SalesArguments {
		order := int(a.Order.Float())
		if order <= 0 {
			order = i + 1
		}
		view.Arguments = append(view.Arguments, ArgumentView{
			Order:   order,
			Message: a.Message,
			Support: a.Support,
			Impact:  level(a.Impact),
		})
	}

	for i, step := range p.Strategy.Steps() {
		if step.IsZero() {
			continue
		}
		view.Steps = append(view.Steps, StepView{
			Number:    i + 1,
			Action:    step.Action,
			Content:   step.Content,
			Materials: nonEmpty(step.Materials),
			Goal:      step.Goal,
		})
	}
	return view
}

func bibliographyEntry(e analysis.BibliographyEntry) BibliographyEntryView {
	return BibliographyEntryView{
		Title:      e.Title,
		Author:     e.Author,
		Publisher:  e.Publisher,
		Type:       e.Type,
		Assessment: e.Assessment,
		Comparison: e.Comparison,
	}
}

// percent bands the rounded value so the label always agrees with the number shown
func percent(v float64) Percent {
	r := analysis.RoundPercent(v)
	band := analysis.CoverageBand(float64(r))
	return Percent{Value: r, Band: band, Color: band.Color(), Label: band.Label()}
}

func level(text string) Level {
	band := analysis.LevelBand(text)
	return Level{Text: text, Band: band, Color: band.Color(), Label: band.Label()}
}

func customLine(title, author, publisher string) string {
	line := title + " - " + author
	if publisher = strings.TrimSpace(publisher); publisher != "" {
		line += " (" + publisher + ")"
	}
	return line
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
