// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by ToolCache.Get when no fresh entry exists
var ErrCacheMiss = errors.New("cache miss")

// ToolCache memoizes deterministic tool output.
// Keys are opaque; callers derive them from the tool name and a fingerprint of the input.
type ToolCache interface {
	// Get returns the cached output, or ErrCacheMiss when absent or expired
	Get(ctx context.Context, key string) (string, error)

	// Set stores output for key, replacing any existing entry
	Set(ctx context.Context, key string, tool string, output string) error

	// Close releases the underlying store
	Close() error
}
