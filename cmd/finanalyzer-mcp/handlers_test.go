package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/app"
	"github.com/ternarybob/finanalyzer/internal/common"
)

func TestLazyAnalyzer_RetriesAfterFailedBuild(t *testing.T) {
	analyzer := newLazyAnalyzer(common.NewDefaultConfig(), arbor.NewLogger())

	calls := 0
	built := &app.App{}
	analyzer.build = func(ctx context.Context, config *common.Config, logger arbor.ILogger) (*app.App, error) {
		calls++
		if calls == 1 {
			return nil, context.Canceled
		}
		assert.NoError(t, ctx.Err())
		return built, nil
	}

	_, err := analyzer.get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	got, err := analyzer.get()
	require.NoError(t, err)
	assert.Same(t, built, got)

	got, err = analyzer.get()
	require.NoError(t, err)
	assert.Same(t, built, got)
	assert.Equal(t, 2, calls)

	analyzer.Close()
	assert.Nil(t, analyzer.app)
}

func TestLazyAnalyzer_ConcurrentGetBuildsOnce(t *testing.T) {
	analyzer := newLazyAnalyzer(common.NewDefaultConfig(), arbor.NewLogger())

	var mu sync.Mutex
	calls := 0
	analyzer.build = func(ctx context.Context, config *common.Config, logger arbor.ILogger) (*app.App, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &app.App{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := analyzer.get()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	analyzer.Close()
}
