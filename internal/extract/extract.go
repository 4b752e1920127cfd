// Package extract pulls contact details out of a business website. It
// scans the landing page, follows at most one contact-style secondary
// page, and merges what it finds. Extraction never fails: the worst
// outcome is contact info holding only the website URL.
package extract

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/browser"
	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/scorer"
)

// Config bounds extraction work per site.
type Config struct {
	// PageTimeout bounds loading the landing page.
	PageTimeout time.Duration

	// ContactPageTimeout bounds loading the secondary contact page.
	ContactPageTimeout time.Duration

	// FollowContactPage enables the single secondary-page hop.
	FollowContactPage bool
}

// DefaultConfig returns production extraction bounds.
func DefaultConfig() Config {
	return Config{
		PageTimeout:        20 * time.Second,
		ContactPageTimeout: 15 * time.Second,
		FollowContactPage:  true,
	}
}

// Extractor scans pages for contact details. Safe for concurrent use.
type Extractor struct {
	transport browser.Transport
	keywords  scorer.Keywords
	cfg       Config
}

// New creates an Extractor using the shared browser transport.
func New(transport browser.Transport, keywords scorer.Keywords, cfg Config) *Extractor {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 20 * time.Second
	}
	if cfg.ContactPageTimeout <= 0 {
		cfg.ContactPageTimeout = cfg.PageTimeout
	}
	return &Extractor{transport: transport, keywords: keywords, cfg: cfg}
}

// Extract returns whatever contact info the site yields. Navigation and
// parse errors degrade to partial or empty results; the website field is
// always populated with the discovered URL.
func (e *Extractor) Extract(ctx context.Context, siteURL string) model.ContactInfo {
	info := model.ContactInfo{Website: siteURL}
	log := zap.L().With(zap.String("url", siteURL))

	page, err := e.transport.Navigate(ctx, siteURL, browser.NavigateOptions{
		Timeout:       e.cfg.PageTimeout,
		WaitCondition: "load",
	})
	if err != nil {
		log.Debug("extract: landing page unreachable", zap.Error(err))
		return info
	}
	defer func() { _ = page.Close() }()

	content, err := page.Content(ctx)
	if err != nil {
		log.Debug("extract: landing page unreadable", zap.Error(err))
		return info
	}

	info = info.Merge(FromContent(content))

	// Email and phone already in hand: the secondary hop cannot improve
	// the classification.
	if info.Email != "" && info.Phone != "" {
		return info
	}

	if !e.cfg.FollowContactPage {
		return info
	}

	contactURL, ok := e.contactLink(ctx, page, siteURL)
	if !ok {
		return info
	}

	secondary := e.extractSecondary(ctx, contactURL)
	merged := info.Merge(secondary)
	merged.Website = siteURL
	return merged
}

// FromContent scans one page's raw content for contact details. It is a
// pure function of the content: identical input yields identical output.
func FromContent(content string) model.ContactInfo {
	info := model.ContactInfo{
		Email:   firstBusinessEmail(content),
		Phone:   firstPhone(content),
		Address: firstAddress(content),
	}
	return info.Merge(structuredHints(content))
}

// contactLink returns the first same-site link whose target or anchor
// text matches a contact keyword.
func (e *Extractor) contactLink(ctx context.Context, page browser.Page, siteURL string) (string, bool) {
	links, err := page.Links(ctx, e.keywords.ContactLinkWords)
	if err != nil {
		zap.L().Debug("extract: link scan failed", zap.String("url", siteURL), zap.Error(err))
		return "", false
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return "", false
	}

	for _, link := range links {
		target, err := url.Parse(link.URL)
		if err != nil || target.Host != base.Host {
			continue
		}
		if target.String() == siteURL {
			continue
		}
		return target.String(), true
	}
	return "", false
}

// extractSecondary loads the contact page and scans it. Failures leave
// the primary results untouched.
func (e *Extractor) extractSecondary(ctx context.Context, contactURL string) model.ContactInfo {
	log := zap.L().With(zap.String("url", contactURL))

	page, err := e.transport.Navigate(ctx, contactURL, browser.NavigateOptions{
		Timeout:       e.cfg.ContactPageTimeout,
		WaitCondition: "load",
	})
	if err != nil {
		log.Debug("extract: contact page unreachable", zap.Error(err))
		return model.ContactInfo{}
	}
	defer func() { _ = page.Close() }()

	content, err := page.Content(ctx)
	if err != nil {
		log.Debug("extract: contact page unreadable", zap.Error(err))
		return model.ContactInfo{}
	}

	log.Debug("extract: contact page scanned")
	return FromContent(content)
}
