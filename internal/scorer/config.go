package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Keywords holds the locale-specific keyword sets used by ScoreURL.
// Defaults target Argentine businesses; a yaml file can override them.
type Keywords struct {
	CountryCommercialTLD string   `yaml:"country_commercial_tld"`
	CountryTLD           string   `yaml:"country_tld"`
	BusinessIndicators   []string `yaml:"business_indicators"`
	ShopSubdomains       []string `yaml:"shop_subdomains"`
	ContactLinkWords     []string `yaml:"contact_link_words"`
}

// DefaultKeywords returns the built-in Argentine keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		CountryCommercialTLD: "com.ar",
		CountryTLD:           "ar",
		BusinessIndicators: []string{
			"empresa", "contacto", "nosotros", "quienes-somos",
			"company", "about-us", "about",
		},
		ShopSubdomains: []string{
			"tienda.", "shop.", "store.", "catalogo.",
		},
		ContactLinkWords: []string{
			"contacto", "contact", "nosotros", "about", "empresa",
			"company", "ubicacion", "location", "direccion", "address",
		},
	}
}

// LoadKeywords reads keyword overrides from a yaml file. Fields left
// empty in the file keep their defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()

	data, err := os.ReadFile(path)
	if err != nil {
		return kw, eris.Wrap(err, "scorer: read keywords file")
	}

	var overrides Keywords
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return kw, eris.Wrap(err, "scorer: parse keywords file")
	}

	if overrides.CountryCommercialTLD != "" {
		kw.CountryCommercialTLD = overrides.CountryCommercialTLD
	}
	if overrides.CountryTLD != "" {
		kw.CountryTLD = overrides.CountryTLD
	}
	if len(overrides.BusinessIndicators) > 0 {
		kw.BusinessIndicators = overrides.BusinessIndicators
	}
	if len(overrides.ShopSubdomains) > 0 {
		kw.ShopSubdomains = overrides.ShopSubdomains
	}
	if len(overrides.ContactLinkWords) > 0 {
		kw.ContactLinkWords = overrides.ContactLinkWords
	}

	return kw, nil
}
