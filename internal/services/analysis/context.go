package analysis

import (
	"fmt"
	"sync"

	"github.com/ternarybob/finanalyzer/internal/models"
)

// AnalysisContext holds the stage results of one pipeline run.
// Each stage key is written at most once; concurrent stages read and write under its lock.
type AnalysisContext struct {
	mu      sync.RWMutex
	results map[models.StageName]*models.StageResult
}

// NewAnalysisContext creates an empty context
func NewAnalysisContext() *AnalysisContext {
	return &AnalysisContext{
		results: make(map[models.StageName]*models.StageResult),
	}
}

// Record stores a stage result; a second write for the same stage fails
func (c *AnalysisContext) Record(result *models.StageResult) error {
	if result == nil {
		return fmt.Errorf("nil stage result")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.results[result.Stage]; exists {
		return fmt.Errorf("%w: %s", ErrStageAlreadyRecorded, result.Stage)
	}
	c.results[result.Stage] = result
	return nil
}

// Get returns a stage result, or nil when the stage has not completed
func (c *AnalysisContext) Get(stage models.StageName) *models.StageResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results[stage]
}

// Collect returns the recorded results for the given stages, in argument order, skipping missing ones
func (c *AnalysisContext) Collect(stages ...models.StageName) []*models.StageResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*models.StageResult, 0, len(stages))
	for _, stage := range stages {
		if result, ok := c.results[stage]; ok {
			out = append(out, result)
		}
	}
	return out
}
