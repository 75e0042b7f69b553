// Package submission validates what an operator enters before an analysis
// may be dispatched.
package submission

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"uniscan/domain/bibliography"
	"uniscan/internal/errors"
)

// MinContentLength is the minimum trimmed program length, in characters
const MinContentLength = 100

// Operator-facing guard messages
const (
	MsgSubjectRequired = "Seleziona una materia"
	MsgTitleRequired   = "Inserisci il titolo del programma"
	MsgContentRequired = "Inserisci il contenuto del programma"
	msgContentTooShort = "Il contenuto del programma deve contenere almeno %d caratteri (attuali: %d)"
)

// Form is the raw state of the submission form
type Form struct {
	SubjectID    int64               `json:"subject_id" form:"subject_id"`
	Title        string              `json:"program_title" form:"program_title"`
	Content      string              `json:"program_content" form:"program_content"`
	Professor    string              `json:"professor_name" form:"professor_name"`
	University   string              `json:"university" form:"university"`
	DegreeCourse string              `json:"degree_course" form:"degree_course"`
	Primary      bibliography.Slot   `json:"primary_manual"`
	Alternatives []bibliography.Slot `json:"alternative_manuals"`
}

// Submission is a validated form with a normalized bibliography
type Submission struct {
	SubjectID    int64
	Title        string
	Content      string
	Professor    string
	University   string
	DegreeCourse string
	Bibliography bibliography.Bibliography
}

// Validate applies every guard and reports one violation per failed guard.
// Nothing about the form is changed when it fails.
func Validate(form Form) (Submission, error) {
	var violations []errors.Violation

	if form.SubjectID <= 0 {
		violations = append(violations, errors.Violation{Field: "subject_id", Message: MsgSubjectRequired})
	}

	title := strings.TrimSpace(form.Title)
	if title == "" {
		violations = append(violations, errors.Violation{Field: "program_title", Message: MsgTitleRequired})
	}

	content := strings.TrimSpace(form.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		violations = append(violations, errors.Violation{Field: "program_content", Message: MsgContentRequired})
	case n < MinContentLength:
		violations = append(violations, errors.Violation{
			Field:   "program_content",
			Message: fmt.Sprintf(msgContentTooShort, MinContentLength, n),
		})
	}

	if len(violations) > 0 {
		return Submission{}, errors.Invalid(violations...)
	}

	return Submission{
		SubjectID:    form.SubjectID,
		Title:        title,
		Content:      content,
		Professor:    strings.TrimSpace(form.Professor),
		University:   strings.TrimSpace(form.University),
		DegreeCourse: strings.TrimSpace(form.DegreeCourse),
		Bibliography: bibliography.Normalize(form.Primary, form.Alternatives),
	}, nil
}
