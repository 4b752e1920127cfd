package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/austral-labs/enrich-cli/internal/model"
)

func TestIsPlausibleBusinessURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://acme.com.ar", true},
		{"http://acme.com.ar/contacto", true},
		{"https://www.metalurgica-sur.com", true},
		{"https://facebook.com/acme", false},
		{"https://www.instagram.com/acme", false},
		{"https://ar.linkedin.com/company/acme", false},
		{"https://es.wikipedia.org/wiki/Acme", false},
		{"https://articulo.mercadolibre.com.ar/MLA-12345", false},
		{"https://www.google.com/maps/place/acme", false},
		{"https://acme.blogspot.com", false},
		{"https://x.com/acme", false},
		{"https://mobile.x.com/acme", false},
		{"https://www.bumeran.com.ar/empleos/acme", false},
		// Denylist entries anchor on host labels, not substrings.
		{"https://fedex.com/ar", true},
		{"https://www.xerox.com", true},
		{"https://acme.com.ar/catalogo.pdf", false},
		{"ftp://acme.com.ar", false},
		{"not a url", false},
		{"", false},
		{"/relative/path", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPlausibleBusinessURL(tt.url), "url=%q", tt.url)
	}
}

func TestIsPlausibleBusinessURL_Pure(t *testing.T) {
	// Identical input always yields identical output.
	for range 5 {
		assert.True(t, IsPlausibleBusinessURL("https://acme.com.ar"))
		assert.False(t, IsPlausibleBusinessURL("https://facebook.com/acme"))
	}
}

func TestScoreURL_DomainTiers(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Zzz"}

	comAr := ScoreURL("https://example.com.ar", record, "", kw)
	ar := ScoreURL("https://example.ar", record, "", kw)
	com := ScoreURL("https://example.com", record, "", kw)
	org := ScoreURL("https://example.org", record, "", kw)

	assert.Equal(t, 40, comAr)
	assert.Equal(t, 30, ar)
	assert.Equal(t, 15, com)
	assert.Equal(t, 0, org)
}

func TestScoreURL_OnlyHighestDomainTierApplies(t *testing.T) {
	kw := DefaultKeywords()
	// .com.ar also ends in .ar; only the 40-point tier must apply.
	score := ScoreURL("https://example.com.ar", model.Record{Name: "Zzz"}, "", kw)
	assert.Equal(t, 40, score)
}

func TestScoreURL_NameAndQueryWords(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Acme Metalurgica SA"}

	// .com.ar (40) + "acme" (25) + "metalurgica" (25).
	score := ScoreURL("https://acme-metalurgica.com.ar", record, "", kw)
	assert.Equal(t, 90, score)

	// Query word "metalurgica" (len > 3) adds 10 on top.
	withQuery := ScoreURL("https://acme-metalurgica.com.ar", record, "metalurgica rosario", kw)
	assert.Equal(t, 100, withQuery)
}

func TestScoreURL_FoldsDiacritics(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Peñaflor SA"}

	// "Peñaflor" must match the slug "penaflor".
	score := ScoreURL("https://penaflor.com.ar", record, "", kw)
	assert.Equal(t, 40+25, score)
}

func TestScoreURL_Penalties(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Zzz"}

	assert.Equal(t, 40-10, ScoreURL("https://tienda.example.com.ar", record, "", kw))
	assert.Equal(t, 40-15, ScoreURL("https://blog.example.com.ar", record, "", kw))
	assert.Equal(t, 40-15, ScoreURL("https://example.com.ar/blog/post", record, "", kw))
	assert.Equal(t, 40-5, ScoreURL("https://example.com.ar/listing-48291", record, "", kw))
}

func TestScoreURL_IndicatorMonotonic(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Acme SA"}
	query := "acme empresa"

	base := ScoreURL("https://acme.com.ar/", record, query, kw)
	withIndicator := ScoreURL("https://acme.com.ar/empresa", record, query, kw)

	// Adding a matching business-indicator keyword never decreases score.
	assert.GreaterOrEqual(t, withIndicator, base)
}

func TestScoreURL_Deterministic(t *testing.T) {
	kw := DefaultKeywords()
	record := model.Record{Name: "Acme SA", Location: "CABA"}
	query := `"Acme" site:*.com.ar`

	first := ScoreURL("https://acme.com.ar/nosotros", record, query, kw)
	for range 10 {
		assert.Equal(t, first, ScoreURL("https://acme.com.ar/nosotros", record, query, kw))
	}
}

func TestCleanBusinessName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme S.A.", "Acme"},
		{"Acme SA", "Acme"},
		{"Metalurgica Sur S.R.L.", "Metalurgica Sur"},
		{"Tech Andina S.A.S.", "Tech Andina"},
		{"Comercial del Plata LTDA", "Comercial del Plata"},
		{"Acme, Inc.", "Acme"},
		{"Acme   Holdings   Corp", "Acme Holdings"},
		{"  Acme  ", "Acme"},
		{"Acme", "Acme"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanBusinessName(tt.in), "in=%q", tt.in)
	}
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "penaflor", FoldASCII("Peñaflor"))
	assert.Equal(t, "cordoba", FoldASCII("Córdoba"))
	assert.Equal(t, "acme", FoldASCII("ACME"))
}
