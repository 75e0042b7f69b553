package bibliography

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bibliography is the normalized set of references of a submission
type Bibliography struct {
	Primary      *Reference  `json:"primary,omitempty"`
	Alternatives []Reference `json:"alternatives"`
}

// Normalize keeps only well-formed references. Half-filled custom entries
// are dropped without error; alternatives keep their relative order.
func Normalize(primary Slot, alternatives []Slot) Bibliography {
	out := Bibliography{Alternatives: make([]Reference, 0, len(alternatives))}

	if ref := FromSlot(primary); ref.WellFormed() {
		out.Primary = &ref
	}
	for _, slot := range alternatives {
		if ref := FromSlot(slot); ref.WellFormed() {
			out.Alternatives = append(out.Alternatives, ref)
		}
	}
	return out
}

// Ordered returns the primary reference first, then the alternatives
func (b Bibliography) Ordered() []Reference {
	refs := make([]Reference, 0, len(b.Alternatives)+1)
	if b.Primary != nil {
		refs = append(refs, *b.Primary)
	}
	return append(refs, b.Alternatives...)
}

// CatalogIDs lists the catalog manual ids in order, primary first
func (b Bibliography) CatalogIDs() []int64 {
	var ids []int64
	for _, ref := range b.Ordered() {
		if ref.IsCatalog() {
			ids = append(ids, ref.ManualID)
		}
	}
	return ids
}

// IsEmpty is true when nothing survived normalization
func (b Bibliography) IsEmpty() bool {
	return b.Primary == nil && len(b.Alternatives) == 0
}

// Encode returns the stored JSON form. Alternatives are always present.
func (b Bibliography) Encode() (json.RawMessage, error) {
	if b.Alternatives == nil {
		b.Alternatives = []Reference{}
	}
	return json.Marshal(b)
}

// Decode reads a stored bibliography. An empty or null value is an empty
// bibliography; any other shape than the encoded object is an error.
func Decode(raw []byte) (Bibliography, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || string(trimmed) == "null" {
		return Bibliography{Alternatives: []Reference{}}, nil
	}
	var out Bibliography
	if err := json.Unmarshal(raw, &out); err != nil {
		return Bibliography{}, fmt.Errorf("decode bibliography: %w", err)
	}
	if out.Alternatives == nil {
		out.Alternatives = []Reference{}
	}
	return out, nil
}
