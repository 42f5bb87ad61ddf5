// -----------------------------------------------------------------------
// Document Extractor - plain text from uploaded PDF and DOCX files
// pdfcpu validates and decrypts, tabula reads pages and paragraphs
// -----------------------------------------------------------------------

package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/tsawler/tabula/docx"
	tabulamodel "github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
)

// segmentSeparator joins non-empty pages or paragraphs
const segmentSeparator = "\n\n"

// Extractor implements interfaces.DocumentExtractor
type Extractor struct {
	maxSize int64
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor enforcing the given size ceiling (<= 0 uses the default)
func NewExtractor(maxSize int64, logger arbor.ILogger) *Extractor {
	if maxSize <= 0 {
		maxSize = common.DefaultMaxDocumentSize
	}
	return &Extractor{
		maxSize: maxSize,
		logger:  logger,
	}
}

// DocumentFromPath builds a Document from a file on disk.
// Unsupported extensions and missing files are reported as InvalidDocumentError.
func DocumentFromPath(path string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := models.FormatFromExtension(ext)
	if !ok {
		return models.Document{}, &InvalidDocumentError{Reason: ReasonUnsupportedFormat, Path: path, Extension: ext}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return models.Document{}, &InvalidDocumentError{Reason: ReasonNotFound, Path: path, Extension: ext}
	}

	return models.Document{
		Path:         path,
		Format:       format,
		Size:         info.Size(),
		OriginalName: filepath.Base(path),
	}, nil
}

// Validate checks the document exists, has a supported format and is within the size ceiling
func (e *Extractor) Validate(doc models.Document) error {
	ext := strings.ToLower(filepath.Ext(doc.Path))

	info, err := os.Stat(doc.Path)
	if err != nil || info.IsDir() {
		return &InvalidDocumentError{Reason: ReasonNotFound, Path: doc.Path, Extension: ext}
	}

	if doc.Format != models.DocumentFormatPDF && doc.Format != models.DocumentFormatDOCX {
		return &InvalidDocumentError{Reason: ReasonUnsupportedFormat, Path: doc.Path, Extension: ext}
	}

	if info.Size() > e.maxSize {
		return &InvalidDocumentError{Reason: ReasonTooLarge, Path: doc.Path, Extension: ext, Size: info.Size(), MaxSize: e.maxSize}
	}

	return nil
}

// Extract validates the document and returns its text
func (e *Extractor) Extract(ctx context.Context, doc models.Document) (string, error) {
	if err := e.Validate(doc); err != nil {
		return "", err
	}

	var (
		segments []string
		err      error
	)
	switch doc.Format {
	case models.DocumentFormatPDF:
		segments, err = e.extractPDF(ctx, doc.Path)
	case models.DocumentFormatDOCX:
		segments, err = e.extractDOCX(doc.Path)
	}
	if err != nil {
		return "", err
	}

	text := joinSegments(segments)

	e.logger.Debug().
		Str("path", doc.Path).
		Str("format", string(doc.Format)).
		Int("segments", len(segments)).
		Int("text_len", len(text)).
		Msg("Extracted document text")

	return text, nil
}

// joinSegments trims each segment, drops empty ones and joins the rest with a blank line
func joinSegments(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, segmentSeparator)
}

// extractPDF reads pages in order. Page failures are logged and skipped.
func (e *Extractor) extractPDF(ctx context.Context, path string) ([]string, error) {
	readable, cleanup, err := e.preparePDF(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	r, err := reader.Open(readable)
	if err != nil {
		return nil, &CorruptDocumentError{Path: path, Format: "PDF", Err: err}
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, &CorruptDocumentError{Path: path, Format: "PDF", Err: err}
	}

	return e.collectPages(ctx, path, pageCount, func(index int) (string, error) {
		return e.extractPage(r, index)
	})
}

// collectPages reads pages in order. A page whose read fails or panics is logged and skipped.
func (e *Extractor) collectPages(ctx context.Context, path string, pageCount int, read func(index int) (string, error)) ([]string, error) {
	segments := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText, err := readPage(read, i)
		if err != nil {
			e.logger.Warn().
				Str("path", path).
				Int("page", i+1).
				Err(err).
				Msg("Could not read page, skipping")
			continue
		}
		segments = append(segments, pageText)
	}

	return segments, nil
}

// readPage recovers from parser panics on malformed content streams
func readPage(read func(index int) (string, error), index int) (pageText string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", index+1, rec)
		}
	}()
	return read(index)
}

// extractPage returns one page's text
func (e *Extractor) extractPage(r *reader.Reader, index int) (string, error) {
	page, err := r.GetPage(index)
	if err != nil {
		return "", err
	}

	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return "", err
	}

	return assembleFragments(fragments), nil
}

// assembleFragments orders fragments top-to-bottom, left-to-right and starts a new line on a baseline change
func assembleFragments(fragments []text.TextFragment) string {
	if len(fragments) == 0 {
		return ""
	}

	sorted := make([]text.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameLine(sorted[i], sorted[j]) {
			return sorted[i].Y > sorted[j].Y // PDF origin is bottom-left
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	prev := sorted[0]
	b.WriteString(prev.Text)
	for _, frag := range sorted[1:] {
		switch {
		case !sameLine(prev, frag):
			b.WriteString("\n")
		case frag.X > prev.X+prev.Width+spaceThreshold(prev):
			b.WriteString(" ")
		}
		b.WriteString(frag.Text)
		prev = frag
	}
	return b.String()
}

func sameLine(a, b text.TextFragment) bool {
	tolerance := a.Height / 2
	if tolerance <= 0 {
		tolerance = 2
	}
	diff := a.Y - b.Y
	return diff < tolerance && diff > -tolerance
}

func spaceThreshold(f text.TextFragment) float64 {
	if f.FontSize > 0 {
		return f.FontSize * 0.15
	}
	return 1
}

// preparePDF validates the file with pdfcpu and, for reader-open encrypted files,
// writes an empty-password decrypted copy. The returned cleanup removes any temp file.
func (e *Extractor) preparePDF(path string) (string, func(), error) {
	noop := func() {}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = ""
	conf.OwnerPW = ""

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		if isPasswordError(err) {
			return "", noop, fmt.Errorf("%s: %w", path, ErrEncryptedDocument)
		}
		return "", noop, &CorruptDocumentError{Path: path, Format: "PDF", Err: err}
	}

	if pdfCtx.Encrypt == nil {
		return path, noop, nil
	}

	tmp, err := os.CreateTemp("", "finanalyzer-decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp file for decryption: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	cleanup := func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn().Str("path", tmpPath).Err(err).Msg("Failed to remove decrypted temp file")
		}
	}

	if err := api.DecryptFile(path, tmpPath, conf); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("%s: %w: %v", path, ErrEncryptedDocument, err)
	}

	e.logger.Debug().Str("path", path).Msg("Decrypted PDF with empty password")
	return tmpPath, cleanup, nil
}

// isPasswordError prefers pdfcpu's sentinels; older messages are matched by text
func isPasswordError(err error) bool {
	if errors.Is(err, pdfcpu.ErrWrongPassword) || errors.Is(err, pdfcpu.ErrUnknownEncryption) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// extractDOCX reads paragraphs and headings in document order.
// Any decode failure fails the whole extraction.
func (e *Extractor) extractDOCX(path string) ([]string, error) {
	r, err := docx.Open(path)
	if err != nil {
		return nil, &CorruptDocumentError{Path: path, Format: "DOCX", Err: err}
	}
	defer r.Close()

	doc, err := r.Document()
	if err != nil {
		return nil, &CorruptDocumentError{Path: path, Format: "DOCX", Err: err}
	}

	var segments []string
	for _, page := range doc.Pages {
		for _, element := range page.Elements {
			switch el := element.(type) {
			case *tabulamodel.Paragraph:
				segments = append(segments, el.Text)
			case *tabulamodel.Heading:
				segments = append(segments, el.Text)
			}
		}
	}

	return segments, nil
}
