package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/finanalyzer/internal/models"
)

// RequireMethod validates that the HTTP request uses one of the allowed methods.
// Returns true if the method matches, false otherwise (and writes a 405 response).
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	return false
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard {"detail": ...} error body.
func WriteError(w http.ResponseWriter, statusCode int, detail string) error {
	return WriteJSON(w, statusCode, models.ErrorResponse{Detail: detail})
}
