package scorer

import (
	"net/url"
	"strings"
)

// domainDenylist rejects hosts that are never a business's own site:
// social networks, marketplaces, job boards, wikis, map and video
// services, directories and hosted-blog platforms. Entries are matched
// against the URL host, exact or as a parent domain; a trailing dot
// makes the entry TLD-agnostic ("mercadolibre." covers
// mercadolibre.com and articulo.mercadolibre.com.ar).
var domainDenylist = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"youtube.com",
	"tiktok.com",
	"pinterest.",
	"mercadolibre.",
	"amazon.",
	"ebay.",
	"wikipedia.org",
	"wikimedia.org",
	"maps.google.",
	"waze.com",
	"tripadvisor.",
	"paginasamarillas.",
	"guiatelefonica.",
	"computrabajo.",
	"bumeran.",
	"zonajobs.",
	"indeed.",
	"glassdoor.",
	"blogspot.com",
	"wordpress.com",
	"medium.com",
	"duckduckgo.com",
	"bing.com",
}

// pathDenylist rejects service paths on hosts that are not denylisted
// as a whole.
var pathDenylist = []string{
	"google.com/maps",
	"goo.gl/maps",
}

// documentExtensions rejects direct links to documents.
var documentExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".zip"}

// IsPlausibleBusinessURL reports whether a URL could be a business's own
// website. Malformed input and non-HTTP schemes yield false; the
// function never panics.
func IsPlausibleBusinessURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	for _, blocked := range domainDenylist {
		if blockedHost(host, blocked) {
			return false
		}
	}

	lower := strings.ToLower(rawURL)
	for _, blocked := range pathDenylist {
		if strings.Contains(lower, blocked) {
			return false
		}
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	return true
}

// blockedHost matches a host against one denylist entry on label
// boundaries, so "x.com" rejects x.com and mobile.x.com but not
// fedex.com or xerox.com.
func blockedHost(host, blocked string) bool {
	if strings.HasSuffix(blocked, ".") {
		return strings.HasPrefix(host, blocked) || strings.Contains(host, "."+blocked)
	}
	return host == blocked || strings.HasSuffix(host, "."+blocked)
}
