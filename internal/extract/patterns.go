package extract

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

// freeMailDomains lists consumer mail providers. An address on one of
// these is discarded outright, not merely deprioritized: it is never a
// business's own contact address.
var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"live.com":    true,
	"msn.com":     true,
	"aol.com":     true,
	"icloud.com":  true,
}

// phonePatterns cover the local phone formats: country-code prefixed,
// area-code with leading zero, bare mobile/local, and parenthesized
// area code.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+54\s?(?:9\s?)?(?:11|[2-9]\d)\s?\d{3,4}[-\s]?\d{4}`),
	regexp.MustCompile(`\(\d{2,4}\)\s?\d{3,4}[-\s]?\d{4}`),
	regexp.MustCompile(`\b(?:011|0\d{2,4})\s?\d{3,4}[-\s]?\d{4}\b`),
	regexp.MustCompile(`\b(?:11|15)\s?\d{4}[-\s]?\d{4}\b`),
}

// addressPatterns look for street-and-number runs anchored by a known
// city or province marker.
var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([a-záéíóúñ.\s]+\d+[^"<.\n]{0,60}(?:caba|buenos aires|córdoba|rosario|mendoza|tucumán|la plata))`),
	regexp.MustCompile(`(?i)([a-záéíóúñ.\s]+\d+[^"<.\n]{0,50}(?:provincia|prov\.|argentina))`),
}

const maxAddressLen = 200

// firstBusinessEmail returns the first email whose domain is not a free
// consumer provider.
func firstBusinessEmail(content string) string {
	for _, email := range emailPattern.FindAllString(content, 10) {
		at := strings.LastIndex(email, "@")
		if at < 0 {
			continue
		}
		domain := strings.ToLower(email[at+1:])
		if freeMailDomains[domain] {
			continue
		}
		return email
	}
	return ""
}

// firstPhone returns the first plausible phone number, normalized by
// stripping separators and the country/leading-zero prefix.
func firstPhone(content string) string {
	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(content, 5) {
			normalized := normalizePhone(match)
			if len(normalized) >= 8 {
				return normalized
			}
		}
	}
	return ""
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

func normalizePhone(phone string) string {
	normalized := phoneSeparators.Replace(phone)
	normalized = strings.TrimPrefix(normalized, "+54")
	normalized = strings.TrimPrefix(normalized, "0")
	return normalized
}

// firstAddress returns the first free-text address match, length-capped.
func firstAddress(content string) string {
	for _, pattern := range addressPatterns {
		if match := pattern.FindString(content); match != "" {
			match = strings.TrimSpace(match)
			if len(match) > maxAddressLen {
				match = match[:maxAddressLen]
			}
			return match
		}
	}
	return ""
}
