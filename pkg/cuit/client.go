package cuit

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.cuitonline.com"

// Client resolves business names against the public registry listing.
type Client interface {
	// Identify returns the best-matching identifier and legal name for
	// the business, or an error when no candidate clears the
	// similarity threshold.
	Identify(ctx context.Context, name string) (cuitID, legalName string, err error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default registry base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithThreshold overrides the minimum similarity for a match.
func WithThreshold(threshold float64) Option {
	return func(c *httpClient) {
		c.threshold = threshold
	}
}

type httpClient struct {
	baseURL   string
	threshold float64
	http      *http.Client
}

// NewClient creates a registry client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		threshold: 0.55,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// entryPattern captures name/identifier pairs from the listing markup.
var entryPattern = regexp.MustCompile(`(?is)<h2[^>]*>\s*(?:<a[^>]*>)?(.*?)(?:</a>)?\s*</h2>.{0,400}?(\d{2}-\d{8}-\d)`)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

type candidate struct {
	cuitID string
	name   string
	score  float64
}

func (c *httpClient) Identify(ctx context.Context, name string) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", eris.New("cuit: empty name")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search.php?q="+url.QueryEscape(name), nil)
	if err != nil {
		return "", "", eris.Wrap(err, "cuit: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", eris.Wrap(err, "cuit: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", "", eris.Errorf("cuit: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", "", eris.Wrap(err, "cuit: read response")
	}

	best := c.bestCandidate(string(body), name)
	if best == nil {
		return "", "", eris.Errorf("cuit: no match for %q", name)
	}
	return best.cuitID, best.name, nil
}

func (c *httpClient) bestCandidate(page, name string) *candidate {
	var best *candidate
	for _, match := range entryPattern.FindAllStringSubmatch(page, 20) {
		entryName := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(match[1], "")))
		cuitID := match[2]
		if entryName == "" || !Valid(cuitID) {
			continue
		}

		score := Similarity(name, entryName)
		if score < c.threshold {
			continue
		}
		if best == nil || score > best.score {
			best = &candidate{cuitID: cuitID, name: entryName, score: score}
		}
	}
	return best
}
