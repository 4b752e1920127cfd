package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(eris.New("flaky"), 503)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		return eris.New("permanent failure")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		return NewTransientError(eris.New("always down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetryConfig(5), func(ctx context.Context) error {
		calls++
		cancel()
		return NewTransientError(eris.New("flaky"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ReturnsValue(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(eris.New("flaky"), 500)
		}
		return "https://acme.com.ar", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com.ar", val)
	assert.Equal(t, 2, calls)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetryConfig(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, err := DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, NewTransientError(eris.New("flaky"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestComputeBackoff_Exponential(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
		JitterFraction: 0,
	}

	assert.Equal(t, 100*time.Millisecond, computeBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, computeBackoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, computeBackoff(2, cfg))
	// Capped at MaxBackoff.
	assert.Equal(t, time.Second, computeBackoff(10, cfg))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("bad input")))
	assert.True(t, IsTransient(NewTransientError(eris.New("503"), 503)))
	assert.True(t, IsTransient(eris.New("read tcp: i/o timeout")))
	assert.True(t, IsTransient(eris.New("dial: no such host")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code=%d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "code=%d", code)
	}
}
