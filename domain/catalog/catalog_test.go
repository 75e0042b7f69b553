package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDegreeClass(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"L-13_Biologia_Molecolare", "L-13 Biologia Molecolare"},
		{"L-13_Biologia_Generale", "L-13 Biologia Generale"},
		{"LM-6", "LM-6"},
		{"L-2_", "L-2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDegreeClass(tt.in))
		})
	}
}

func TestDegreeClassesReadsBothLayouts(t *testing.T) {
	top := Framework{Content: json.RawMessage(`{"classes_analyzed":["L-13_Biologia","L-2_Biotecnologie"]}`)}
	nested := Framework{Content: json.RawMessage(`{"framework":{"classes_analyzed":["LM-6_Biologia_Marina"],"modules":[{},{}]}}`)}
	none := Framework{Content: json.RawMessage(`{"modules":[]}`)}

	assert.Equal(t, []string{"L-13 Biologia", "L-2 Biotecnologie"}, top.DegreeClasses())
	assert.Equal(t, []string{"LM-6 Biologia Marina"}, nested.DegreeClasses())
	assert.Equal(t, 2, nested.ModuleCount())
	assert.Nil(t, none.DegreeClasses())
	assert.Nil(t, Framework{}.DegreeClasses())
}

func TestClassify(t *testing.T) {
	manuals := []Manual{
		{ID: 1, Title: "Biologia", Publisher: "Zanichelli"},
		{ID: 2, Title: "Campbell", Publisher: "Pearson"},
		{ID: 3, Title: "Sadava", Publisher: " zanichelli "},
	}

	classified := Classify(manuals, "Zanichelli")
	assert.Equal(t, ManualTypeOwn, classified[0].Type)
	assert.Equal(t, ManualTypeCompetitor, classified[1].Type)
	assert.Len(t, Own(classified), 2)
	assert.Empty(t, manuals[0].Type)
}

func TestCanonicalPublisher(t *testing.T) {
	p, ok := CanonicalPublisher("mcgraw-hill")
	assert.True(t, ok)
	assert.Equal(t, "McGraw-Hill", p)

	_, ok = CanonicalPublisher("Mondadori")
	assert.False(t, ok)
	assert.Contains(t, Publishers, DefaultPublisher)
}

func TestManualLabel(t *testing.T) {
	m := Manual{Title: "Chimica", Author: "Brown", Publisher: "Edises"}
	assert.Equal(t, "Chimica - Brown (Edises)", m.Label())
	assert.Equal(t, "Solo titolo", Manual{Title: "Solo titolo"}.Label())
}
