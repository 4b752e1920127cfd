package records

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP source.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// RequestsPerSecond paces downloads from record hosts.
	RequestsPerSecond rate.Limit

	// RetryBaseDelay is the first backoff step, doubled per attempt.
	RetryBaseDelay time.Duration
}

// HTTPSource downloads record files over HTTP with retry and pacing.
type HTTPSource struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPSource creates an HTTPSource with the given options.
func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "enrich-cli/1.0"
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = time.Second
	}
	return &HTTPSource{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: rate.NewLimiter(opts.RequestsPerSecond, 1),
	}
}

// Download fetches the URL and returns the response body. Retries on
// transport errors, 429 and 5xx with exponential backoff.
func (s *HTTPSource) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "records: create request")
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	var lastErr error
	for attempt := range s.opts.MaxRetries {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "records: rate limiter wait")
		}

		resp, err := s.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("records: download failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			s.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("records: http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("records: retryable status",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			s.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("records: unexpected status %d from %s", resp.StatusCode, rawURL)
		}

		return resp.Body, nil
	}

	return nil, eris.Wrap(lastErr, "records: all retries exhausted")
}

func (s *HTTPSource) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(s.opts.RetryBaseDelay) * math.Pow(2, float64(attempt)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
