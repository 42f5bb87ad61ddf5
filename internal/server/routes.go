package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.app.HealthHandler.RootHandler)           // GET - health check
	mux.HandleFunc("/analyze", s.app.AnalyzeHandler.AnalyzeHandler) // POST - multipart upload

	return mux
}
