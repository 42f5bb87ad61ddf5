package interfaces

import (
	"context"

	"github.com/ternarybob/finanalyzer/internal/models"
)

// DocumentExtractor turns an uploaded document into plain text
type DocumentExtractor interface {
	// Validate checks existence, format and size without reading content
	Validate(doc models.Document) error

	// Extract returns the document's non-empty segments joined by a blank line.
	// A document with no text yields "" and no error.
	Extract(ctx context.Context, doc models.Document) (string, error)
}
