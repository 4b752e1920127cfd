// Package discovery finds a business's website by issuing ranked search
// queries against a prioritized list of search surfaces and scoring the
// returned candidates. Discovery never fails: when nothing qualifies it
// reports no result.
package discovery

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/browser"
	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/resilience"
	"github.com/austral-labs/enrich-cli/internal/scorer"
)

// Config controls discovery pacing and verification.
type Config struct {
	// ResultsPerQuery caps how many result links are read per query.
	ResultsPerQuery int

	// MinDelay/MaxDelay bound the randomized pause between queries on
	// the same surface.
	MinDelay time.Duration
	MaxDelay time.Duration

	// SurfaceDelay is the longer pause before moving to the next surface.
	SurfaceDelay time.Duration

	// QueryTimeout bounds one query round trip.
	QueryTimeout time.Duration

	// VerifyLiveness enables the header-only reachability check on an
	// accepted candidate.
	VerifyLiveness  bool
	LivenessTimeout time.Duration

	// Retry controls transient-error retries of a single query. A zero
	// MaxAttempts disables retries.
	Retry resilience.RetryConfig
}

// DefaultConfig returns production pacing.
func DefaultConfig() Config {
	return Config{
		ResultsPerQuery: 5,
		MinDelay:        1000 * time.Millisecond,
		MaxDelay:        2500 * time.Millisecond,
		SurfaceDelay:    5 * time.Second,
		QueryTimeout:    10 * time.Second,
		VerifyLiveness:  true,
		LivenessTimeout: 5 * time.Second,
		Retry:           resilience.DefaultRetryConfig(),
	}
}

// Discoverer runs the multi-surface search for one record at a time.
// It is safe for concurrent use by multiple enrichment tasks.
type Discoverer struct {
	transport browser.Transport
	surfaces  []Surface
	keywords  scorer.Keywords
	cfg       Config
}

// New creates a Discoverer over the given surfaces, tried in order.
func New(transport browser.Transport, surfaces []Surface, keywords scorer.Keywords, cfg Config) *Discoverer {
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 5
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger("discovery", "search")
	}
	return &Discoverer{
		transport: transport,
		surfaces:  surfaces,
		keywords:  keywords,
		cfg:       cfg,
	}
}

// Discover returns the best plausible website for the record, or false
// when no candidate qualifies. Transport errors on individual queries
// are swallowed and treated as "no result for this query".
func (d *Discoverer) Discover(ctx context.Context, record model.Record) (string, bool) {
	queries := BuildQueries(record, d.keywords)
	if len(queries) == 0 {
		return "", false
	}

	log := zap.L().With(zap.String("record", record.Name))

	for si, surface := range d.surfaces {
		if si > 0 && !d.sleep(ctx, d.cfg.SurfaceDelay) {
			return "", false
		}

		surfaceQueries := queries
		if limit := surface.MaxQueries(); limit > 0 && len(surfaceQueries) > limit {
			surfaceQueries = surfaceQueries[:limit]
		}

		for qi, query := range surfaceQueries {
			if qi > 0 && !d.sleep(ctx, d.jitterDelay()) {
				return "", false
			}

			candidate, ok := d.tryQuery(ctx, surface, record, query)
			if !ok {
				continue
			}

			if d.cfg.VerifyLiveness && !d.transport.Probe(ctx, candidate, d.cfg.LivenessTimeout) {
				log.Debug("discovery: candidate unreachable",
					zap.String("surface", surface.Name()),
					zap.String("url", candidate),
				)
				continue
			}

			log.Info("discovery: website found",
				zap.String("surface", surface.Name()),
				zap.String("query", query),
				zap.String("url", candidate),
			)
			return candidate, true
		}
	}

	log.Info("discovery: no website found",
		zap.Int("queries", len(queries)),
		zap.Int("surfaces", len(d.surfaces)),
	)
	return "", false
}

// tryQuery runs one query on one surface and returns the best accepted
// candidate. Any error degrades to no result.
func (d *Discoverer) tryQuery(ctx context.Context, surface Surface, record model.Record, query string) (string, bool) {
	results, err := resilience.DoVal(ctx, d.cfg.Retry, func(ctx context.Context) ([]string, error) {
		return resilience.WithTimeout(ctx, d.cfg.QueryTimeout, func(ctx context.Context) ([]string, error) {
			return surface.Search(ctx, query, d.cfg.ResultsPerQuery)
		})
	})
	if err != nil {
		zap.L().Debug("discovery: query failed",
			zap.String("surface", surface.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		return "", false
	}

	best := ""
	bestScore := scorer.AcceptanceThreshold
	for _, candidate := range results {
		if !scorer.IsPlausibleBusinessURL(candidate) {
			continue
		}
		if score := scorer.ScoreURL(candidate, record, query, d.keywords); score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if best == "" {
		return "", false
	}

	zap.L().Debug("discovery: candidate accepted",
		zap.String("surface", surface.Name()),
		zap.String("url", best),
		zap.Int("score", bestScore),
	)
	return best, true
}

// jitterDelay picks a random pause in [MinDelay, MaxDelay].
func (d *Discoverer) jitterDelay() time.Duration {
	if d.cfg.MaxDelay <= d.cfg.MinDelay {
		return d.cfg.MinDelay
	}
	return d.cfg.MinDelay + rand.N(d.cfg.MaxDelay-d.cfg.MinDelay)
}

// sleep waits for the given duration unless the context ends first.
func (d *Discoverer) sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
