// Package browser abstracts the navigation primitive the pipeline uses
// to reach search surfaces and business websites. The pipeline only
// depends on the Transport and Page interfaces; the default
// implementation fetches over net/http.
package browser

import (
	"context"
	"time"
)

// NavigateOptions control a single navigation.
type NavigateOptions struct {
	// Timeout bounds the whole navigation. Zero uses the session default.
	Timeout time.Duration

	// WaitCondition names the load condition to wait for. The HTTP
	// implementation treats a fully read body as loaded; a real browser
	// implementation can map it to its own load events.
	WaitCondition string
}

// Link is an outbound link found on a page.
type Link struct {
	URL  string
	Text string
}

// Page is one navigated document. Pages must be closed on every exit
// path; Close is idempotent.
type Page interface {
	// URL returns the final URL after redirects.
	URL() string

	// Content returns the rendered page content.
	Content(ctx context.Context) (string, error)

	// Links returns outbound links whose href or anchor text contains
	// any of the given keywords (case- and accent-insensitive). An
	// empty keyword list returns all links.
	Links(ctx context.Context, keywords []string) ([]Link, error)

	Close() error
}

// Transport navigates to URLs on behalf of the pipeline. A Transport is
// a shared long-lived resource; concurrent Navigate calls are safe.
type Transport interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) (Page, error)

	// Probe performs a lightweight liveness check (header-only where
	// possible) without producing a Page.
	Probe(ctx context.Context, url string, timeout time.Duration) bool

	Close() error
}
