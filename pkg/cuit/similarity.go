package cuit

import (
	"regexp"
	"strings"
)

var legalSuffixes = regexp.MustCompile(
	`(?i)\s*,?\s*(S\.?A\.?S\.?|S\.?A\.?|S\.?R\.?L\.?|SOCIEDAD ANONIMA|` +
		`SOCIEDAD DE RESPONSABILIDAD LIMITADA|LTDA\.?|CIA\.?|COMPANIA)\s*\.?\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// normalizeName strips legal suffixes and normalizes whitespace for
// registry matching.
func normalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = legalSuffixes.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// Similarity returns a [0,1] score between two business names based on
// edit distance over their normalized forms.
func Similarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	dist := levenshtein(na, nb)
	longest := max(len(na), len(nb))
	return 1 - float64(dist)/float64(longest)
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
