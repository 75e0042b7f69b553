package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDefinesEveryPrompt(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)
	for _, name := range []string{Contextual, Technical, Commercial, Email} {
		assert.True(t, set.Has(name), name)
	}
}

func TestMarkersAreExclusive(t *testing.T) {
	set := MustDefault()
	data := Data{
		Publisher:     "Zanichelli",
		SubjectName:   "Chimica Generale",
		ProgramText:   "Stechiometria, termodinamica, equilibri.",
		Phase1JSON:    "{}",
		Phase2JSON:    "{}",
		FrameworkJSON: "{}",
		CatalogJSON:   "[]",
		Bibliography:  "MANUALE PRINCIPALE: Chimica - Rossi (Piccin)",
		InputJSON:     "{}",
	}
	markers := map[string]string{
		Contextual: MarkerContextual,
		Technical:  MarkerTechnical,
		Commercial: MarkerCommercial,
		Email:      MarkerEmail,
	}
	for name, own := range markers {
		_, user, err := set.Render(name, data)
		require.NoError(t, err, name)
		assert.Equal(t, 1, strings.Count(user, own), name)
		for other, marker := range markers {
			if other != name {
				assert.NotContains(t, user, marker, "%s contains marker of %s", name, other)
			}
		}
	}
}

func TestRenderSubstitutesData(t *testing.T) {
	set := MustDefault()

	system, user, err := set.Render(Technical, Data{
		Publisher:     "Piccin",
		SubjectName:   "Anatomia Umana",
		ProgramText:   "Apparato locomotore",
		Phase1JSON:    `{"sintesi_profilo":"x"}`,
		FrameworkJSON: `{"modules":[]}`,
	})
	require.NoError(t, err)
	assert.Contains(t, system, "Anatomia Umana")
	assert.Contains(t, user, "Apparato locomotore")
	assert.Contains(t, user, `{"modules":[]}`)
	assert.NotContains(t, user, "BIBLIOGRAFIA ADOTTATA")

	_, user, err = set.Render(Technical, Data{Publisher: "Piccin", Bibliography: "MANUALE PRINCIPALE: X"})
	require.NoError(t, err)
	assert.Contains(t, user, "BIBLIOGRAFIA ADOTTATA")
	assert.Contains(t, user, "Se un manuale Piccin è già presente")
}

func TestRenderUnknownPrompt(t *testing.T) {
	_, _, err := MustDefault().Render("missing", Data{})
	assert.Error(t, err)
}

func TestParseRejectsBadTemplate(t *testing.T) {
	_, err := Parse([]byte("broken:\n  system: \"{{.Publisher\"\n  user: ok\n"))
	assert.Error(t, err)
}
