package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.True(t, IsRateLimitError(errors.New("status 429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(genai.APIError{Code: 429, Message: "slow down"}))
	assert.False(t, IsRateLimitError(errors.New("invalid model name")))
}

func TestIsHardQuotaError(t *testing.T) {
	assert.True(t, IsHardQuotaError(errors.New(`{"error":{"type":"insufficient_quota"}}`)))
	assert.True(t, IsHardQuotaError(errors.New("You exceeded your current quota, please check your plan")))
	assert.False(t, IsHardQuotaError(errors.New("429 rate limited")))
	assert.False(t, IsHardQuotaError(nil))
}

func TestIsPermanentError(t *testing.T) {
	assert.True(t, IsPermanentError(genai.APIError{Code: 401, Message: "bad key"}))
	assert.True(t, IsPermanentError(fmt.Errorf("wrapped: %w", genai.APIError{Code: 400})))
	assert.False(t, IsPermanentError(genai.APIError{Code: 503}))
	assert.False(t, IsPermanentError(errors.New("plain")))
}

func TestIsQuotaExceeded_Wrapped(t *testing.T) {
	err := fmt.Errorf("stage doc_analysis: %w", fmt.Errorf("%w: claude", ErrQuotaExceeded))
	assert.True(t, IsQuotaExceeded(err))
	assert.False(t, IsQuotaExceeded(errors.New("insufficient_quota")), "string content alone is not the typed signal")
}
