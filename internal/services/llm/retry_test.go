package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
)

func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 1.5,
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: slow down. Please retry in 12.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, 12500*time.Millisecond, ExtractRetryDelay(err))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no hint here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &RetryConfig{
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2,
	}

	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(2, 0), "capped at MaxBackoff")
	assert.Equal(t, 3*time.Second, cfg.CalculateBackoff(0, 3*time.Second), "API hint replaces the base")
}

func TestNewRetryConfig(t *testing.T) {
	cfg := NewRetryConfig(&common.LLMConfig{
		MaxRetries:     1,
		InitialBackoff: "100ms",
		MaxBackoff:     "bogus",
		Timeout:        "2s",
	})

	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, DefaultMaxBackoff, cfg.MaxBackoff)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout)
}

func TestCallWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := callWithRetry(context.Background(), arbor.NewLogger(), fastRetryConfig(3), ProviderClaude, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCallWithRetry_RateLimitBecomesQuotaExceeded(t *testing.T) {
	calls := 0
	err := callWithRetry(context.Background(), arbor.NewLogger(), fastRetryConfig(2), ProviderGemini, func(ctx context.Context) error {
		calls++
		return errors.New("Error 429, Status: RESOURCE_EXHAUSTED")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, 3, calls, "first call plus two retries")
}

func TestCallWithRetry_HardQuotaStopsImmediately(t *testing.T) {
	calls := 0
	err := callWithRetry(context.Background(), arbor.NewLogger(), fastRetryConfig(3), ProviderClaude, func(ctx context.Context) error {
		calls++
		return errors.New("Your credit balance is too low to access the Anthropic API")
	})

	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestCallWithRetry_OtherErrorsAreNotQuota(t *testing.T) {
	err := callWithRetry(context.Background(), arbor.NewLogger(), fastRetryConfig(1), ProviderClaude, func(ctx context.Context) error {
		return errors.New("upstream exploded")
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuotaExceeded))
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestCallWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := callWithRetry(ctx, arbor.NewLogger(), fastRetryConfig(3), ProviderClaude, func(ctx context.Context) error {
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}
