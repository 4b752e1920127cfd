package browser

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/austral-labs/enrich-cli/internal/resilience"
	"github.com/austral-labs/enrich-cli/internal/scorer"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 1 << 20

// SessionConfig configures the HTTP transport session.
type SessionConfig struct {
	UserAgent string

	// DefaultTimeout bounds navigations that don't set their own.
	DefaultTimeout time.Duration

	// BlockedResourceTypes lists resource types a browser-backed
	// transport must not load (image, stylesheet, font, media). The
	// HTTP transport never fetches subresources, so the list is
	// honored trivially, but it is carried for implementations that do.
	BlockedResourceTypes []string
}

// DefaultSessionConfig returns the settings used by the pipeline.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UserAgent:            defaultUserAgent,
		DefaultTimeout:       20 * time.Second,
		BlockedResourceTypes: []string{"image", "stylesheet", "font", "media"},
	}
}

// Session is the net/http implementation of Transport. One Session is
// shared by all concurrent enrichment tasks; each Navigate produces an
// independent Page.
type Session struct {
	client    *http.Client
	cfg       SessionConfig
	openPages atomic.Int64
	closed    atomic.Bool
}

// NewSession creates the shared transport session. This is the only
// initialization in the pipeline whose failure aborts the whole run.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 20 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Session{
		client: &http.Client{Transport: transport},
		cfg:    cfg,
	}, nil
}

// Navigate fetches the URL and returns a Page over its content.
func (s *Session) Navigate(ctx context.Context, rawURL string, opts NavigateOptions) (Page, error) {
	if s.closed.Load() {
		return nil, eris.New("browser: session closed")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	nctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(nctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "browser: create request")
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "browser: navigate")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		err := eris.Errorf("browser: status %d for %s", resp.StatusCode, rawURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "browser: read body")
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	s.openPages.Add(1)
	return &httpPage{
		session: s,
		url:     finalURL,
		content: string(body),
	}, nil
}

// Probe checks that a URL answers, HEAD first with a GET fallback for
// servers that reject HEAD. Never returns an error: unreachable is false.
func (s *Session) Probe(ctx context.Context, rawURL string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(pctx, method, rawURL, nil)
		if err != nil {
			return false
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		if resp.StatusCode < 400 {
			return true
		}
		if resp.StatusCode == http.StatusMethodNotAllowed {
			continue
		}
		return false
	}
	return false
}

// OpenPages returns the number of pages not yet closed.
func (s *Session) OpenPages() int {
	return int(s.openPages.Load())
}

// Close shuts the session down. Outstanding pages stay readable but no
// new navigation is accepted.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.client.CloseIdleConnections()
	zap.L().Debug("browser: session closed", zap.Int64("pages_open", s.openPages.Load()))
	return nil
}

// httpPage is a fetched document.
type httpPage struct {
	session   *Session
	url       string
	content   string
	closeOnce sync.Once
}

func (p *httpPage) URL() string {
	return p.url
}

func (p *httpPage) Content(_ context.Context) (string, error) {
	return p.content, nil
}

// Links tokenizes the document and returns anchors matching the keyword
// filter, resolved against the page URL.
func (p *httpPage) Links(_ context.Context, keywords []string) ([]Link, error) {
	base, err := url.Parse(p.url)
	if err != nil {
		return nil, eris.Wrap(err, "browser: parse page url")
	}

	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = scorer.FoldASCII(kw)
	}

	var links []Link
	seen := make(map[string]bool)

	tokenizer := html.NewTokenizer(strings.NewReader(p.content))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken {
			continue
		}

		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}

		var href string
		for _, attr := range token.Attr {
			if attr.Key == "href" {
				href = strings.TrimSpace(attr.Val)
				break
			}
		}
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			continue
		}

		text := anchorText(tokenizer)

		if !matchesAny(scorer.FoldASCII(href), scorer.FoldASCII(text), folded) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, Link{URL: resolved, Text: text})
	}

	return links, nil
}

func (p *httpPage) Close() error {
	p.closeOnce.Do(func() {
		p.session.openPages.Add(-1)
	})
	return nil
}

// anchorText collects the text content up to the closing </a>.
func anchorText(tokenizer *html.Tokenizer) string {
	var sb strings.Builder
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.WriteString(string(tokenizer.Text()))
		case html.EndTagToken:
			token := tokenizer.Token()
			if token.Data == "a" {
				return strings.TrimSpace(sb.String())
			}
		}
	}
}

func matchesAny(href, text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(href, kw) || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
