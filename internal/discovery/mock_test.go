package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/austral-labs/enrich-cli/internal/browser"
	"github.com/austral-labs/enrich-cli/internal/resilience"
)

// mockTransport satisfies browser.Transport for discovery tests. Only
// Probe is exercised by the Discoverer itself; surfaces are mocked
// separately.
type mockTransport struct {
	mu        sync.Mutex
	probeOK   bool
	probeURLs []string
}

func (m *mockTransport) Navigate(ctx context.Context, url string, opts browser.NavigateOptions) (browser.Page, error) {
	return nil, eris.New("mock: navigate not expected")
}

func (m *mockTransport) Probe(ctx context.Context, url string, timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeURLs = append(m.probeURLs, url)
	return m.probeOK
}

func (m *mockTransport) Close() error { return nil }

// mockSurface returns canned results keyed by query, and records every
// query it receives. failFirst makes the first N searches fail with a
// transient error.
type mockSurface struct {
	mu         sync.Mutex
	name       string
	maxQueries int
	results    map[string][]string
	err        error
	failFirst  int
	queries    []string
}

func (m *mockSurface) Name() string { return m.name }

func (m *mockSurface) MaxQueries() int {
	if m.maxQueries == 0 {
		return maxQueriesPerRecord
	}
	return m.maxQueries
}

func (m *mockSurface) Search(ctx context.Context, query string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.failFirst > 0 {
		m.failFirst--
		return nil, resilience.NewTransientError(eris.New("rate limited"), 429)
	}
	if m.err != nil {
		return nil, m.err
	}
	results := m.results[query]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockSurface) received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// testConfig removes all pacing so tests run instantly.
func testConfig() Config {
	return Config{
		ResultsPerQuery: 5,
		QueryTimeout:    time.Second,
		VerifyLiveness:  false,
	}
}
