package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
)

const (
	unsupportedFileType = "Unsupported file type. Please upload a PDF or DOCX file."
	missingFileField    = "Field required: file"
	processingErrorFmt  = "Error processing financial document: %s"

	// Multipart parts beyond this are spooled to temp files by the mime package
	multipartMemory = 32 << 20
	// Room for form fields and multipart framing on top of the document ceiling
	multipartOverhead = 1 << 20
)

// AnalyzeHandler handles document uploads and runs the analysis pipeline
type AnalyzeHandler struct {
	analyzer  DocumentAnalyzer
	assembler ResultAssembler
	dataDir   string
	maxSize   int64
	query     string
	logger    arbor.ILogger
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
// defaultQuery answers requests without a query; empty means common.DefaultQuery.
func NewAnalyzeHandler(
	analyzer DocumentAnalyzer,
	assembler ResultAssembler,
	dataDir string,
	maxSize int64,
	defaultQuery string,
	logger arbor.ILogger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:  analyzer,
		assembler: assembler,
		dataDir:   dataDir,
		maxSize:   maxSize,
		query:     common.ResolveQuery(defaultQuery, ""),
		logger:    logger,
	}
}

// AnalyzeHandler handles POST /analyze (multipart: file, query)
func (h *AnalyzeHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("File size exceeds maximum limit of %d bytes", h.maxSize))
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			WriteError(w, http.StatusUnprocessableEntity, missingFileField)
		default:
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, missingFileField)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	format, ok := models.FormatFromExtension(ext)
	if !ok {
		WriteError(w, http.StatusBadRequest, unsupportedFileType)
		return
	}

	query := common.ResolveQuery(r.FormValue("query"), h.query)

	path := filepath.Join(h.dataDir, "financial_document_"+common.NewUploadID()+ext)
	defer h.removeUpload(path)

	size, err := h.saveUpload(file, path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", path).Msg("Failed to store upload")
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf(processingErrorFmt, err.Error()))
		return
	}

	doc := models.Document{
		Path:         path,
		Format:       format,
		Size:         size,
		OriginalName: header.Filename,
	}

	h.logger.Info().
		Str("file", header.Filename).
		Int64("size", size).
		Str("query", query).
		Msg("Analyzing uploaded document")

	run, err := h.analyzer.Run(r.Context(), doc, query)
	if err != nil {
		h.assembler.Cleanup(run)
		if errors.Is(err, documents.ErrInvalidDocument) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf(processingErrorFmt, err.Error()))
		return
	}

	response, err := h.assembler.Assemble(run, header.Filename)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf(processingErrorFmt, err.Error()))
		return
	}

	WriteJSON(w, http.StatusOK, response)
}

func (h *AnalyzeHandler) saveUpload(src multipart.File, path string) (int64, error) {
	if err := os.MkdirAll(h.dataDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create data directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return 0, fmt.Errorf("failed to write upload file: %w", err)
	}
	return size, nil
}

// removeUpload deletes the stored upload; failures are logged, never returned
func (h *AnalyzeHandler) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn().Err(err).Str("path", path).Msg("Failed to clean up uploaded file")
	}
}
