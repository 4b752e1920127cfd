package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/austral-labs/enrich-cli/internal/browser"
)

// Surface is one query-capable search endpoint reached through the
// browser transport. Surfaces are tried in a fixed priority order.
type Surface interface {
	Name() string

	// MaxQueries bounds how many of a record's queries this surface
	// receives. Lower-priority surfaces see fewer queries.
	MaxQueries() int

	// Search issues one query and returns raw result links, best first.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// searchSurface is a generic HTML search endpoint. The two stock
// surfaces differ only in URL construction and result-link decoding.
type searchSurface struct {
	name       string
	maxQueries int
	transport  browser.Transport
	limiter    *rate.Limiter
	buildURL   func(query string) string
	decodeLink func(raw string) (string, bool)
}

func (s *searchSurface) Name() string    { return s.name }
func (s *searchSurface) MaxQueries() int { return s.maxQueries }

func (s *searchSurface) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "discovery: rate limiter wait")
	}

	page, err := s.transport.Navigate(ctx, s.buildURL(query), browser.NavigateOptions{
		WaitCondition: "load",
	})
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: %s query", s.name)
	}
	defer func() { _ = page.Close() }()

	links, err := page.Links(ctx, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: %s read results", s.name)
	}

	var results []string
	for _, link := range links {
		decoded, ok := s.decodeLink(link.URL)
		if !ok {
			continue
		}
		results = append(results, decoded)
		if len(results) >= limit {
			break
		}
	}

	zap.L().Debug("discovery: surface results",
		zap.String("surface", s.name),
		zap.String("query", query),
		zap.Int("links", len(results)),
	)
	return results, nil
}

// NewDuckDuckGoSurface returns the primary search surface. It uses the
// static HTML endpoint, whose result links wrap the target URL in a
// redirect parameter.
func NewDuckDuckGoSurface(transport browser.Transport) Surface {
	return &searchSurface{
		name:       "duckduckgo",
		maxQueries: maxQueriesPerRecord,
		transport:  transport,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		buildURL: func(query string) string {
			return "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
		},
		decodeLink: decodeDuckDuckGoLink,
	}
}

// NewBingSurface returns the fallback surface. It only sees the highest
// precision queries.
func NewBingSurface(transport browser.Transport) Surface {
	return &searchSurface{
		name:       "bing",
		maxQueries: 3,
		transport:  transport,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		buildURL: func(query string) string {
			return "https://www.bing.com/search?q=" + url.QueryEscape(query)
		},
		decodeLink: decodeExternalLink,
	}
}

// decodeDuckDuckGoLink unwraps /l/?uddg= redirect links and drops
// internal navigation links.
func decodeDuckDuckGoLink(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if strings.Contains(parsed.Host, "duckduckgo.com") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target, true
		}
		return "", false
	}

	return decodeExternalLink(raw)
}

// decodeExternalLink keeps absolute http(s) links and drops everything
// else (relative navigation, javascript, fragments).
func decodeExternalLink(raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}
	return raw, true
}
