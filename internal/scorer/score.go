package scorer

import (
	"regexp"
	"strings"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// AcceptanceThreshold is the minimum score a candidate must exceed to be
// accepted. Candidates at or below it are discarded even when top-ranked;
// finding no qualifying candidate is an expected outcome.
const AcceptanceThreshold = 10

// Score weights. Domain bonuses are mutually exclusive, highest first.
const (
	weightCountryCommercialTLD = 40 // .com.ar
	weightCountryTLD           = 30 // .ar
	weightGenericCommercialTLD = 15 // .com
	weightNameWord             = 25 // per cleaned-name word (len > 2) in URL
	weightQueryWord            = 10 // per query word (len > 3) in URL
	weightIndicatorKeyword     = 15 // per business-indicator keyword in URL

	penaltyShopSubdomain = 10
	penaltyBlog          = 15
	penaltyDigitRun      = 5
)

var digitRunPattern = regexp.MustCompile(`\d{4,}`)

// ScoreURL computes the relevance of a candidate URL for a record and
// the query that produced it. Deterministic for identical inputs.
func ScoreURL(rawURL string, record model.Record, query string, kw Keywords) int {
	lower := FoldASCII(rawURL)
	score := 0

	// Domain suffix bonus: apply only the highest matching tier.
	host := hostOf(lower)
	switch {
	case strings.HasSuffix(host, "."+kw.CountryCommercialTLD):
		score += weightCountryCommercialTLD
	case strings.HasSuffix(host, "."+kw.CountryTLD):
		score += weightCountryTLD
	case strings.HasSuffix(host, ".com"):
		score += weightGenericCommercialTLD
	}

	for _, word := range nameWords(record.Name, 2) {
		if strings.Contains(lower, word) {
			score += weightNameWord
		}
	}

	for _, word := range strings.Fields(FoldASCII(query)) {
		if len(word) > 3 && strings.Contains(lower, word) {
			score += weightQueryWord
		}
	}

	for _, keyword := range kw.BusinessIndicators {
		if strings.Contains(lower, keyword) {
			score += weightIndicatorKeyword
		}
	}

	for _, shop := range kw.ShopSubdomains {
		if strings.Contains(lower, shop) {
			score -= penaltyShopSubdomain
			break
		}
	}
	if strings.Contains(lower, "blog.") || strings.Contains(lower, "/blog") {
		score -= penaltyBlog
	}
	if digitRunPattern.MatchString(lower) {
		score -= penaltyDigitRun
	}

	return score
}

// hostOf extracts the host portion of an already-lowercased URL without
// a full parse, tolerating malformed input (scoring must be total).
func hostOf(lower string) string {
	rest := lower
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	for _, sep := range []string{"/", "?", "#", ":"} {
		if idx := strings.Index(rest, sep); idx >= 0 {
			rest = rest[:idx]
		}
	}
	return rest
}
