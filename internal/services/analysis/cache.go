package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
)

// CachedTool memoizes a deterministic tool by name and input fingerprint.
// Tools implementing interfaces.FingerprintedTool are keyed by their own fingerprint.
type CachedTool struct {
	tool   interfaces.Tool
	cache  interfaces.ToolCache
	logger arbor.ILogger
}

var _ interfaces.Tool = (*CachedTool)(nil)

// NewCachedTool wraps tool with cache
func NewCachedTool(tool interfaces.Tool, cache interfaces.ToolCache, logger arbor.ILogger) *CachedTool {
	return &CachedTool{tool: tool, cache: cache, logger: logger}
}

func (t *CachedTool) Name() string        { return t.tool.Name() }
func (t *CachedTool) Description() string { return t.tool.Description() }

// Run returns the cached output when present; otherwise runs the tool and stores a successful result.
// Cache failures are logged and never fail the call.
func (t *CachedTool) Run(ctx context.Context, input string) (string, error) {
	key, ok := t.key(input)
	if !ok {
		return t.tool.Run(ctx, input)
	}

	output, err := t.cache.Get(ctx, key)
	if err == nil {
		t.logger.Debug().Str("tool", t.tool.Name()).Msg("Tool cache hit")
		return output, nil
	}
	if !errors.Is(err, interfaces.ErrCacheMiss) {
		t.logger.Warn().Err(err).Str("tool", t.tool.Name()).Msg("Tool cache lookup failed")
	}

	output, err = t.tool.Run(ctx, input)
	if err != nil {
		return "", err
	}

	if err := t.cache.Set(ctx, key, t.tool.Name(), output); err != nil {
		t.logger.Warn().Err(err).Str("tool", t.tool.Name()).Msg("Failed to cache tool result")
	}
	return output, nil
}

// key returns false when the input cannot be fingerprinted; the call then bypasses the cache
func (t *CachedTool) key(input string) (string, bool) {
	fp, ok := t.tool.(interfaces.FingerprintedTool)
	if !ok {
		return CacheKey(t.tool.Name(), input), true
	}

	fingerprint, err := fp.Fingerprint(input)
	if err != nil {
		t.logger.Debug().Err(err).Str("tool", t.tool.Name()).Msg("Tool input not fingerprinted, skipping cache")
		return "", false
	}
	return CacheKey(t.tool.Name(), fingerprint), true
}

// CacheKey is "<tool>:<sha256(input) hex>"
func CacheKey(tool, input string) string {
	sum := sha256.Sum256([]byte(input))
	return tool + ":" + hex.EncodeToString(sum[:])
}
