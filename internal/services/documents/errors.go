package documents

import (
	"errors"
	"fmt"
)

// InvalidDocumentReason classifies why a document was rejected before extraction
type InvalidDocumentReason string

const (
	ReasonNotFound          InvalidDocumentReason = "not_found"
	ReasonUnsupportedFormat InvalidDocumentReason = "unsupported_format"
	ReasonTooLarge          InvalidDocumentReason = "too_large"
)

// ErrInvalidDocument matches every InvalidDocumentError via errors.Is
var ErrInvalidDocument = errors.New("invalid document")

// ErrEncryptedDocument is returned when a PDF cannot be opened with an empty password
var ErrEncryptedDocument = errors.New("cannot read encrypted PDF file")

// InvalidDocumentError is a user-correctable rejection: bad path, format or size
type InvalidDocumentError struct {
	Reason    InvalidDocumentReason
	Path      string
	Extension string
	Size      int64
	MaxSize   int64
}

func (e *InvalidDocumentError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return fmt.Sprintf("File not found: %s", e.Path)
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("Unsupported file format: %s. Please provide a PDF or DOCX file.", e.Extension)
	case ReasonTooLarge:
		return fmt.Sprintf("File size %d bytes exceeds maximum limit of %d bytes", e.Size, e.MaxSize)
	default:
		return fmt.Sprintf("invalid document: %s", e.Path)
	}
}

func (e *InvalidDocumentError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// CorruptDocumentError is an extraction-fatal decode failure
type CorruptDocumentError struct {
	Path   string
	Format string
	Err    error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("Error reading %s file %s: %v", e.Format, e.Path, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}
