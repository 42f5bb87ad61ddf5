package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/app"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/analysis"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
)

const cannedAnswer = "## Overview\nSteady results overall.\n\n```json\n{}\n```"

// stubProvider answers every stage immediately, or fails every call with err
type stubProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *stubProvider) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ContentResponse{Text: cannedAnswer, Provider: llm.ProviderClaude}, nil
}

func (p *stubProvider) GetProviderType() llm.ProviderType { return llm.ProviderClaude }
func (p *stubProvider) Close() error                      { return nil }

func newTestServer(t *testing.T, provider llm.Provider) (*Server, string) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Analysis.FinancialAnalyst.MaxRPM = 60000
	cfg.Analysis.InvestmentAdvisor.MaxRPM = 60000
	cfg.Analysis.RiskAssessor.MaxRPM = 60000

	application, err := app.NewWithProvider(cfg, arbor.NewLogger(), provider)
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application), cfg.Storage.DataDir
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	require.NoError(t, err)

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func uploadRequest(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("query", "Should I buy?"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.StatusRunning, body.Status)
}

func TestServer_Preflight(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestServer_AnalyzeEndToEnd(t *testing.T) {
	provider := &stubProvider{}
	srv, dataDir := newTestServer(t, provider)

	doc := docxBytes(t, "Revenue: $1.2 billion", "Net income: $150 million", "Debt increased this year")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "annual.docx", doc))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, "annual.docx", resp.FileProcessed)
	assert.Contains(t, resp.ExecutiveSummary, "Steady results overall.")
	assert.NotContains(t, resp.ExecutiveSummary, "```json")
	for _, heading := range []string{"# Financial Analysis", "# Investment Analysis", "# Risk Assessment"} {
		assert.Contains(t, resp.Analysis, heading)
	}
	assert.Equal(t, 4, provider.calls)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServer_AnalyzeQuotaReturnsMock(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("claude: %w", llm.ErrQuotaExceeded)}
	srv, dataDir := newTestServer(t, provider)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "annual.docx", docxBytes(t, "Revenue: $10 million")))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, analysis.MockAnalysis, resp.Analysis)
	assert.Equal(t, analysis.MockExecutiveSummary, resp.ExecutiveSummary)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServer_AnalyzeCorruptDocument(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "broken.docx", []byte("not a zip archive")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Detail, "Error processing financial document: "))
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{})

	handler := srv.withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Detail)
}
