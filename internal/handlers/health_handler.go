package handlers

import (
	"net/http"

	"github.com/ternarybob/finanalyzer/internal/models"
)

// HealthHandler serves the service health check
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// RootHandler handles GET /
func (h *HealthHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	// "/" is a catch-all pattern on ServeMux
	if r.URL.Path != "/" {
		WriteError(w, http.StatusNotFound, "Not Found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:  models.StatusRunning,
		Service: models.ServiceName,
		Version: models.APIVersion,
	})
}
