package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique pipeline run ID
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewUploadID generates the bare UUID used in stored upload file names
func NewUploadID() string {
	return uuid.New().String()
}
