// Package scorer provides pure scoring and validation for candidate
// business websites: a plausibility filter, a relevance score, and
// business-name normalization. No I/O.
package scorer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixPattern matches common legal-entity suffixes, both the local
// (S.A., S.R.L., S.A.S., LTDA, CIA) and the English variants.
var suffixPattern = regexp.MustCompile(`(?i)[,.]?\s*\b(s\.?a\.?s\.?|s\.?a\.?|s\.?r\.?l\.?|ltda\.?|cia\.?|inc\.?|corp\.?|ltd\.?|llc\.?)\b\.?\s*$`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanBusinessName strips legal-entity suffixes, collapses whitespace
// and trims. Used to build search queries and to score candidate URLs.
func CleanBusinessName(name string) string {
	cleaned := strings.TrimSpace(name)
	// Suffixes can stack ("Acme S.A. S.A.S."); strip until stable.
	for {
		stripped := suffixPattern.ReplaceAllString(cleaned, "")
		stripped = strings.TrimSpace(stripped)
		if stripped == cleaned {
			break
		}
		cleaned = stripped
	}
	return whitespacePattern.ReplaceAllString(cleaned, " ")
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldASCII lowercases and strips diacritics so accented names match
// their URL slugs ("Peñaflor" -> "penaflor").
func FoldASCII(s string) string {
	folded, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// nameWords returns the folded words of a cleaned business name that are
// long enough to be meaningful for URL matching.
func nameWords(name string, minLen int) []string {
	var words []string
	for _, w := range strings.Fields(FoldASCII(CleanBusinessName(name))) {
		if len(w) > minLen {
			words = append(words, w)
		}
	}
	return words
}
