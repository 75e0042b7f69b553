// Package bibliography models the textbook references attached to a syllabus
// submission and normalizes the raw form slots into well-formed references.
package bibliography

import "strings"

// Kind tags the reference variant
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindCatalog Kind = "catalog"
	KindCustom  Kind = "custom"
)

// Reference is a catalog entry, a free-form entry, or nothing
type Reference struct {
	Kind      Kind   `json:"kind"`
	ManualID  int64  `json:"manual_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

// Catalog builds a reference to a catalog manual
func Catalog(manualID int64) Reference {
	return Reference{Kind: KindCatalog, ManualID: manualID}
}

// Custom builds a free-form reference. Fields are trimmed.
func Custom(title, author, publisher string) Reference {
	return Reference{
		Kind:      KindCustom,
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Publisher: strings.TrimSpace(publisher),
	}
}

// IsCatalog reports whether the reference points into the catalog
func (r Reference) IsCatalog() bool { return r.Kind == KindCatalog }

// IsCustom reports whether the reference is a free-form entry
func (r Reference) IsCustom() bool { return r.Kind == KindCustom }

// WellFormed is true for a catalog id, or a custom entry with both title and author
func (r Reference) WellFormed() bool {
	switch r.Kind {
	case KindCatalog:
		return r.ManualID > 0
	case KindCustom:
		return r.Title != "" && r.Author != ""
	default:
		return false
	}
}

// CustomFields are the free-text inputs of a slot
type CustomFields struct {
	Title     string `json:"title" form:"title"`
	Author    string `json:"author" form:"author"`
	Publisher string `json:"publisher" form:"publisher"`
}

// Slot is one bibliography row as the form submits it
type Slot struct {
	ManualID *int64        `json:"manual_id,omitempty"`
	Custom   *CustomFields `json:"custom,omitempty"`
}

// FromSlot converts a raw slot. A catalog id wins over any custom text.
func FromSlot(s Slot) Reference {
	if s.ManualID != nil && *s.ManualID > 0 {
		return Catalog(*s.ManualID)
	}
	if s.Custom != nil {
		c := Custom(s.Custom.Title, s.Custom.Author, s.Custom.Publisher)
		if c.Title != "" || c.Author != "" || c.Publisher != "" {
			return c
		}
	}
	return Reference{Kind: KindEmpty}
}
