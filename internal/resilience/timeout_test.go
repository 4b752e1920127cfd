package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_CompletesInTime(t *testing.T) {
	val, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestWithTimeout_TimesOut(t *testing.T) {
	start := time.Now()
	_, err := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(5 * time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	// Timeouts are recoverable failures of that sub-step.
	assert.True(t, IsTransient(err))
}

func TestWithTimeout_PropagatesError(t *testing.T) {
	_, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, eris.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTry_CapturesError(t *testing.T) {
	res := Try(context.Background(), func(ctx context.Context) (string, error) {
		return "", eris.New("failed")
	})
	assert.False(t, res.OK())
	assert.Contains(t, res.Err.Error(), "failed")
}

func TestTry_CapturesPanic(t *testing.T) {
	res := Try(context.Background(), func(ctx context.Context) (string, error) {
		panic("unexpected")
	})
	assert.False(t, res.OK())
	assert.Contains(t, res.Err.Error(), "panic")
}

func TestTry_Success(t *testing.T) {
	res := Try(context.Background(), func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	assert.True(t, res.OK())
	assert.Equal(t, "ok", res.Value)
}
