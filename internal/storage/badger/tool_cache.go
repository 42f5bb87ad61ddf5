package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// ToolResult is one memoized tool invocation
type ToolResult struct {
	Key       string `badgerhold:"key"`
	Tool      string `badgerhold:"index"`
	Output    string
	CreatedAt time.Time
}

// ToolCache implements interfaces.ToolCache over an in-memory Badger store
type ToolCache struct {
	db     *BadgerDB
	ttl    time.Duration
	now    func() time.Time
	logger arbor.ILogger
}

var _ interfaces.ToolCache = (*ToolCache)(nil)

// NewToolCache creates a tool cache; ttl <= 0 means entries never expire
func NewToolCache(db *BadgerDB, ttl time.Duration, logger arbor.ILogger) *ToolCache {
	return &ToolCache{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Get returns a fresh cached output or interfaces.ErrCacheMiss
func (c *ToolCache) Get(ctx context.Context, key string) (string, error) {
	var result ToolResult
	err := c.db.Store().Get(key, &result)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", interfaces.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get tool result: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(result.CreatedAt) > c.ttl {
		if err := c.db.Store().Delete(key, ToolResult{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			c.logger.Warn().Str("key", key).Err(err).Msg("Failed to evict expired tool result")
		}
		return "", interfaces.ErrCacheMiss
	}

	return result.Output, nil
}

// Set stores a tool output under key
func (c *ToolCache) Set(ctx context.Context, key string, tool string, output string) error {
	result := ToolResult{
		Key:       key,
		Tool:      tool,
		Output:    output,
		CreatedAt: c.now(),
	}
	if err := c.db.Store().Upsert(key, &result); err != nil {
		return fmt.Errorf("failed to store tool result: %w", err)
	}
	return nil
}

// PurgeExpired deletes every entry older than the TTL. Get already ignores them; this reclaims memory.
func (c *ToolCache) PurgeExpired() error {
	if c.ttl <= 0 {
		return nil
	}
	cutoff := c.now().Add(-c.ttl)
	if err := c.db.Store().DeleteMatching(&ToolResult{}, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return fmt.Errorf("failed to purge expired tool results: %w", err)
	}
	return nil
}

// CountByTool returns how many entries a tool currently has
func (c *ToolCache) CountByTool(tool string) (int, error) {
	count, err := c.db.Store().Count(&ToolResult{}, badgerhold.Where("Tool").Eq(tool).Index("Tool"))
	if err != nil {
		return 0, fmt.Errorf("failed to count tool results: %w", err)
	}
	return int(count), nil
}

// Close closes the underlying store
func (c *ToolCache) Close() error {
	return c.db.Close()
}
