package models

import (
	"strings"
)

// DocumentFormat is the declared format tag of an uploaded document
type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatDOCX DocumentFormat = "docx"
)

// Document is an uploaded file awaiting extraction.
// Created on upload, consumed once by the extractor, never persisted.
type Document struct {
	Path         string         `json:"path"`
	Format       DocumentFormat `json:"format"`
	Size         int64          `json:"size"`
	OriginalName string         `json:"original_name,omitempty"` // Client-supplied file name
}

// FormatFromExtension maps a file extension (with or without the dot, any case) to a format
func FormatFromExtension(ext string) (DocumentFormat, bool) {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "pdf":
		return DocumentFormatPDF, true
	case "docx":
		return DocumentFormatDOCX, true
	default:
		return "", false
	}
}
