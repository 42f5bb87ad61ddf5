package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// ErrQuotaExceeded is returned (wrapped) when the provider reports exhausted quota or
// a rate limit that outlived the retry budget. Callers test with errors.Is.
var ErrQuotaExceeded = errors.New("provider quota exceeded")

// hardQuotaMarkers identify quota errors that will not clear by waiting
var hardQuotaMarkers = []string{
	"insufficient_quota",
	"exceeded your current quota",
	"credit balance is too low",
	"billing",
}

// statusCode extracts the HTTP status carried by a provider SDK error, or 0
func statusCode(err error) int {
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		return claudeErr.StatusCode
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return geminiErrPtr.Code
	}
	return 0
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// IsHardQuotaError reports errors that indicate the account itself is out of quota or credit
func IsHardQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range hardQuotaMarkers {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// IsPermanentError reports client errors that retrying cannot fix (bad request, auth, not found)
func IsPermanentError(err error) bool {
	switch statusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// IsQuotaExceeded reports whether err carries ErrQuotaExceeded
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
