// Package catalog holds the reference data an analysis is run against:
// subjects, their ministerial frameworks, and the textbook catalog.
package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Subject is a teaching subject (e.g. "Biologia Generale")
type Subject struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Framework is the reference curriculum for a subject. Content is kept as
// the raw JSON it was uploaded with.
type Framework struct {
	ID        int64           `json:"id" db:"id"`
	SubjectID int64           `json:"subject_id" db:"subject_id"`
	Name      string          `json:"name" db:"name"`
	Content   json.RawMessage `json:"content" db:"content"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// DegreeClasses returns the formatted degree classes the framework was built
// from, read from "classes_analyzed" at the top level or under "framework".
func (f Framework) DegreeClasses() []string {
	if len(f.Content) == 0 {
		return nil
	}
	result := gjson.GetBytes(f.Content, "classes_analyzed")
	if !result.Exists() {
		result = gjson.GetBytes(f.Content, "framework.classes_analyzed")
	}
	if !result.IsArray() {
		return nil
	}
	var classes []string
	for _, item := range result.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			classes = append(classes, FormatDegreeClass(s))
		}
	}
	return classes
}

// ModuleCount returns how many modules the framework defines, or 0
func (f Framework) ModuleCount() int {
	for _, path := range []string{"modules.#", "framework.modules.#", "moduli.#"} {
		if n := gjson.GetBytes(f.Content, path); n.Exists() {
			return int(n.Int())
		}
	}
	return 0
}

// FormatDegreeClass turns "L-13_Biologia_Molecolare" into "L-13 Biologia Molecolare"
func FormatDegreeClass(raw string) string {
	parts := strings.Split(raw, "_")
	code := parts[0]
	rest := strings.TrimSpace(strings.Join(parts[1:], " "))
	if rest == "" {
		return code
	}
	return code + " " + rest
}

// ManualType distinguishes own-catalog titles from competitor titles
type ManualType string

const (
	ManualTypeOwn        ManualType = "own"
	ManualTypeCompetitor ManualType = "competitor"
)

// Manual is a textbook in the catalog
type Manual struct {
	ID        int64      `json:"id" db:"id"`
	SubjectID int64      `json:"subject_id" db:"subject_id"`
	Title     string     `json:"title" db:"title"`
	Author    string     `json:"author" db:"author"`
	Publisher string     `json:"publisher" db:"publisher"`
	Edition   string     `json:"edition,omitempty" db:"edition"`
	Year      int        `json:"year,omitempty" db:"year"`
	IndexText string     `json:"index_text,omitempty" db:"index_text"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Type      ManualType `json:"type" db:"-"`
}

// Label is "Title - Author (Publisher)"
func (m Manual) Label() string {
	label := m.Title
	if m.Author != "" {
		label += " - " + m.Author
	}
	if m.Publisher != "" {
		label += " (" + m.Publisher + ")"
	}
	return label
}

// Classify marks manuals published by publisher as own, all others as competitor
func Classify(manuals []Manual, publisher string) []Manual {
	out := make([]Manual, len(manuals))
	for i, m := range manuals {
		m.Type = ManualTypeCompetitor
		if strings.EqualFold(strings.TrimSpace(m.Publisher), strings.TrimSpace(publisher)) {
			m.Type = ManualTypeOwn
		}
		out[i] = m
	}
	return out
}

// Own filters the manuals classified as own
func Own(manuals []Manual) []Manual {
	var own []Manual
	for _, m := range manuals {
		if m.Type == ManualTypeOwn {
			own = append(own, m)
		}
	}
	return own
}
