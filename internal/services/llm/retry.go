package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
)

// RetryConfig defines transport-level retry behaviour for provider calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first call (default: 3)
	MaxRetries int

	// InitialBackoff is the wait before the first rate-limit retry (default: 5s)
	InitialBackoff time.Duration

	// MaxBackoff caps any single wait (default: 30s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry (default: 1.5)
	BackoffMultiplier float64

	// CallTimeout bounds a single provider call (default: 60s, 0 = none)
	CallTimeout time.Duration
}

const (
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 5 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 1.5
	DefaultCallTimeout       = 60 * time.Second
)

// NewDefaultRetryConfig returns a RetryConfig with the default values
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		CallTimeout:       DefaultCallTimeout,
	}
}

// NewRetryConfig builds a RetryConfig from the [llm] section, falling back to defaults
func NewRetryConfig(cfg *common.LLMConfig) *RetryConfig {
	rc := NewDefaultRetryConfig()
	if cfg == nil {
		return rc
	}
	if cfg.MaxRetries >= 0 {
		rc.MaxRetries = cfg.MaxRetries
	}
	rc.InitialBackoff = common.ParseDurationOr(cfg.InitialBackoff, DefaultInitialBackoff)
	rc.MaxBackoff = common.ParseDurationOr(cfg.MaxBackoff, DefaultMaxBackoff)
	rc.CallTimeout = common.ParseDurationOr(cfg.Timeout, DefaultCallTimeout)
	return rc
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider error.
// Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the backoff duration for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay) it is used as the base, otherwise InitialBackoff.
// The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// callWithRetry runs call with bounded retries.
// Hard quota errors stop immediately; rate-limit errors that survive every retry
// are reported as ErrQuotaExceeded. Permanent client errors are not retried.
func callWithRetry(ctx context.Context, logger arbor.ILogger, cfg *RetryConfig, provider ProviderType, call func(ctx context.Context) error) error {
	var apiErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		apiErr = callWithTimeout(ctx, cfg.CallTimeout, call)
		if apiErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if IsHardQuotaError(apiErr) {
			return fmt.Errorf("%w: %s: %w", ErrQuotaExceeded, provider, apiErr)
		}

		if IsPermanentError(apiErr) || attempt == cfg.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = cfg.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = cfg.CalculateBackoff(attempt, 0) / 2
		}

		logger.Warn().
			Str("provider", string(provider)).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying provider call")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if IsRateLimitError(apiErr) {
		return fmt.Errorf("%w: %s rate limit persisted after %d retries: %w", ErrQuotaExceeded, provider, cfg.MaxRetries, apiErr)
	}

	return fmt.Errorf("%s API call failed: %w", provider, apiErr)
}

func callWithTimeout(ctx context.Context, timeout time.Duration, call func(ctx context.Context) error) error {
	if timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(callCtx)
}
