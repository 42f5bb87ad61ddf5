package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ternarybob/finanalyzer/internal/interfaces"
)

// ReaderToolName is the tool identifier bound to the financial analyst role
const ReaderToolName = "financial_document_reader"

// ReaderTool reads and extracts text from the PDF or DOCX at the given path
type ReaderTool struct {
	extractor interfaces.DocumentExtractor
}

var _ interfaces.FingerprintedTool = (*ReaderTool)(nil)

// NewReaderTool wraps an extractor as the financial_document_reader tool
func NewReaderTool(extractor interfaces.DocumentExtractor) *ReaderTool {
	return &ReaderTool{extractor: extractor}
}

func (t *ReaderTool) Name() string { return ReaderToolName }

func (t *ReaderTool) Description() string {
	return "Reads and extracts text from financial documents in PDF or DOCX format."
}

// Run extracts the document at path; input is the document path
func (t *ReaderTool) Run(ctx context.Context, path string) (string, error) {
	doc, err := DocumentFromPath(path)
	if err != nil {
		return "", err
	}
	return t.extractor.Extract(ctx, doc)
}

// Fingerprint is the sha256 of the file contents, so an edited file never matches an earlier read
func (t *ReaderTool) Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document for fingerprint: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash document: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
