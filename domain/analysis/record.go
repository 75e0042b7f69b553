package analysis

import (
	"encoding/json"
	"time"

	"uniscan/domain/bibliography"
	"uniscan/domain/core"
)

// MaxStoredContent is the longest program text kept with an analysis
const MaxStoredContent = 60000

// TruncationMarker is appended to program text cut at MaxStoredContent
const TruncationMarker = "\n\n[CONTENUTO TRONCATO]"

// Section names a separately stored part of a result
type Section string

const (
	SectionMetadata   Section = "metadata"
	SectionContextual Section = "contextual"
	SectionTechnical  Section = "technical"
	SectionCommercial Section = "commercial"
	SectionEmail      Section = "email"
	// SectionBibliography is the operator's reference list, not the model's view of it
	SectionBibliography Section = "bibliography"
)

// Record is an analysis as persisted. Each result section is kept as raw
// JSON so one damaged section does not make the others unreadable.
type Record struct {
	ID                 int64                     `json:"id" db:"id"`
	SubjectID          int64                     `json:"subject_id" db:"subject_id"`
	SubjectName        string                    `json:"subject_name" db:"subject_name"`
	ProgramTitle       string                    `json:"program_title" db:"program_title"`
	ProgramContent     string                    `json:"program_content" db:"program_content"`
	Professor          string                    `json:"professor_name" db:"professor_name"`
	University         string                    `json:"university" db:"university"`
	DegreeCourse       string                    `json:"degree_course" db:"degree_course"`
	Publisher          string                    `json:"publisher" db:"publisher"`
	Bibliography       json.RawMessage           `json:"bibliography" db:"bibliography"`
	TotalCoverage      float64                   `json:"total_coverage" db:"total_coverage"`
	PostIt             string                    `json:"post_it" db:"post_it"`
	Metadata           json.RawMessage           `json:"metadata" db:"metadata"`
	ContextualAnalysis json.RawMessage           `json:"contextual_analysis" db:"contextual_analysis"`
	TechnicalAnalysis  json.RawMessage           `json:"technical_analysis" db:"technical_analysis"`
	CommercialAnalysis json.RawMessage           `json:"commercial_analysis" db:"commercial_analysis"`
	GeneratedEmail     json.RawMessage           `json:"generated_email,omitempty" db:"generated_email"`
	CreatedAt          time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at" db:"updated_at"`
}

// Summary is the list view of a record
type Summary struct {
	ID            int64     `json:"id" db:"id"`
	SubjectName   string    `json:"subject_name" db:"subject_name"`
	ProgramTitle  string    `json:"program_title" db:"program_title"`
	University    string    `json:"university" db:"university"`
	Professor     string    `json:"professor_name" db:"professor_name"`
	TotalCoverage float64   `json:"total_coverage" db:"total_coverage"`
	PostIt        string    `json:"post_it" db:"post_it"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Summary projects the record for history listings
func (r Record) Summary() Summary {
	return Summary{
		ID:            r.ID,
		SubjectName:   r.SubjectName,
		ProgramTitle:  r.ProgramTitle,
		University:    r.University,
		Professor:     r.Professor,
		TotalCoverage: r.TotalCoverage,
		PostIt:        r.PostIt,
		CreatedAt:     r.CreatedAt,
	}
}

// TruncateContent caps program text at MaxStoredContent characters
func TruncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxStoredContent {
		return content
	}
	return string(runes[:MaxStoredContent]) + TruncationMarker
}

// NewRecord encodes a freshly computed result for storage
func NewRecord(res Result) (Record, error) {
	rec := Record{
		TotalCoverage: res.Technical.TotalCoverage.Float(),
		PostIt:        res.Commercial.PostIt,
	}
	var err error
	if rec.Metadata, err = json.Marshal(res.Metadata); err != nil {
		return Record{}, err
	}
	if rec.ContextualAnalysis, err = json.Marshal(res.Contextual); err != nil {
		return Record{}, err
	}
	if rec.TechnicalAnalysis, err = json.Marshal(res.Technical); err != nil {
		return Record{}, err
	}
	if rec.CommercialAnalysis, err = json.Marshal(res.Commercial); err != nil {
		return Record{}, err
	}
	if res.Email != nil {
		if rec.GeneratedEmail, err = json.Marshal(res.Email); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// SetBibliography stores the normalized references of the submission
func (r *Record) SetBibliography(b bibliography.Bibliography) error {
	raw, err := b.Encode()
	if err != nil {
		return err
	}
	r.Bibliography = raw
	return nil
}

// Decoded is a record whose sections have been decoded independently.
// Sections that failed to decode are listed in Malformed and left zero.
type Decoded struct {
	Result       Result
	Bibliography bibliography.Bibliography
	Malformed    map[Section]error
}

// Available reports whether a section decoded cleanly
func (d Decoded) Available(s Section) bool {
	_, bad := d.Malformed[s]
	return !bad
}

// Decode reads every section of the record. It never fails as a whole.
func (r Record) Decode() Decoded {
	d := Decoded{Malformed: map[Section]error{}}

	decode := func(s Section, raw json.RawMessage, required bool, into interface{}) {
		if len(raw) == 0 || string(raw) == "null" {
			if required {
				d.Malformed[s] = core.NewMalformedError(string(s), errEmptySection)
			}
			return
		}
		if err := json.Unmarshal(raw, into); err != nil {
			d.Malformed[s] = core.NewMalformedError(string(s), err)
		}
	}

	decode(SectionMetadata, r.Metadata, true, &d.Result.Metadata)
	decode(SectionContextual, r.ContextualAnalysis, true, &d.Result.Contextual)
	decode(SectionTechnical, r.TechnicalAnalysis, true, &d.Result.Technical)
	decode(SectionCommercial, r.CommercialAnalysis, true, &d.Result.Commercial)

	var email Email
	decode(SectionEmail, r.GeneratedEmail, false, &email)
	if len(r.GeneratedEmail) > 0 && d.Available(SectionEmail) && string(r.GeneratedEmail) != "null" {
		d.Result.Email = &email
	}

	if bib, err := bibliography.Decode(r.Bibliography); err != nil {
		d.Malformed[SectionBibliography] = core.NewMalformedError(string(SectionBibliography), err)
	} else {
		d.Bibliography = bib
	}

	// partial decodes must not leak half-filled sections
	if !d.Available(SectionMetadata) {
		d.Result.Metadata = Metadata{}
	}
	if !d.Available(SectionContextual) {
		d.Result.Contextual = Phase1{}
	}
	if !d.Available(SectionTechnical) {
		d.Result.Technical = Phase2{}
	}
	if !d.Available(SectionCommercial) {
		d.Result.Commercial = Phase3{}
	}
	return d
}

type sectionError string

func (e sectionError) Error() string { return string(e) }

const errEmptySection = sectionError("section is empty")
