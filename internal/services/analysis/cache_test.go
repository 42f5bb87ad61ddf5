package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
	"github.com/ternarybob/finanalyzer/internal/storage/badger"
)

func newTestCache(t *testing.T) *badger.ToolCache {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := badger.NewInMemoryBadgerDB(logger)
	require.NoError(t, err)
	cache := badger.NewToolCache(db, time.Hour, logger)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCachedTool_ReturnsStoredOutputWithoutRerunning(t *testing.T) {
	inner := &fakeTool{name: heuristics.RiskToolName, output: "# Risk Assessment Report"}
	tool := NewCachedTool(inner, newTestCache(t), arbor.NewLogger())
	ctx := context.Background()

	first, err := tool.Run(ctx, sampleText)
	require.NoError(t, err)
	second, err := tool.Run(ctx, sampleText)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls())

	_, err = tool.Run(ctx, "different input")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls())
}

func TestCachedTool_ErrorsAreNotCached(t *testing.T) {
	inner := &fakeTool{name: heuristics.RiskToolName, err: errors.New("boom")}
	tool := NewCachedTool(inner, newTestCache(t), arbor.NewLogger())

	_, err := tool.Run(context.Background(), "x")
	require.Error(t, err)
	_, err = tool.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls())
}

func TestCachedTool_RealHeuristicsMatchUncached(t *testing.T) {
	tool := NewCachedTool(heuristics.InvestmentTool{}, newTestCache(t), arbor.NewLogger())

	cached, err := tool.Run(context.Background(), sampleText)
	require.NoError(t, err)
	direct, err := heuristics.InvestmentTool{}.Run(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, direct, cached)
	assert.Equal(t, heuristics.InvestmentToolName, tool.Name())
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("risk_assessment", "abc")
	b := CacheKey("investment_analysis", "abc")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "risk_assessment:"))
	assert.Len(t, strings.TrimPrefix(a, "risk_assessment:"), 64)
	assert.Equal(t, a, CacheKey("risk_assessment", "abc"))
}

func writeOnePagePDF(t *testing.T, path, line string) {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 10, line)
	require.NoError(t, pdf.OutputFileAndClose(path))
}

func TestCachedTool_ReaderFollowsFileContents(t *testing.T) {
	logger := arbor.NewLogger()
	tool := NewCachedTool(documents.NewReaderTool(documents.NewExtractor(0, logger)), newTestCache(t), logger)
	path := filepath.Join(t.TempDir(), "statement.pdf")
	ctx := context.Background()

	writeOnePagePDF(t, path, "Revenue: $1.2 billion")
	first, err := tool.Run(ctx, path)
	require.NoError(t, err)

	writeOnePagePDF(t, path, "Going concern and default warnings")
	second, err := tool.Run(ctx, path)
	require.NoError(t, err)

	assert.Contains(t, first, "Revenue: $1.2 billion")
	assert.Contains(t, second, "Going concern")
	assert.NotContains(t, second, "Revenue")
}

func TestCachedTool_ReaderMissingFileBypassesCache(t *testing.T) {
	logger := arbor.NewLogger()
	tool := NewCachedTool(documents.NewReaderTool(documents.NewExtractor(0, logger)), newTestCache(t), logger)

	_, err := tool.Run(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, documents.ErrInvalidDocument)
}

func TestReaderFingerprint_DiffersByContent(t *testing.T) {
	reader := documents.NewReaderTool(documents.NewExtractor(0, arbor.NewLogger()))
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	writeOnePagePDF(t, a, "Revenue: $1.2 billion")
	writeOnePagePDF(t, b, "Net loss widened")

	fa, err := reader.Fingerprint(a)
	require.NoError(t, err)
	fb, err := reader.Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
	assert.Len(t, fa, 64)

	_, err = reader.Fingerprint(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}
