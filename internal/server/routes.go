package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket gateway (async classification)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Synchronous classification API
	mux.HandleFunc("/api/v1/filter/negative-content", s.app.FilterHandler.FilterNegativeContent)
	mux.HandleFunc("/api/v1/filter/negative-content/batch", s.app.FilterHandler.FilterNegativeContentBatch)

	// Cache administration
	mux.HandleFunc("/api/v1/cache/stats", s.app.FilterHandler.CacheStats)
	mux.HandleFunc("/api/v1/cache", s.app.FilterHandler.ClearCache)

	// Status and audit
	mux.HandleFunc("/health", s.app.StatusHandler.Health)
	mux.HandleFunc("/api/v1/version", s.app.StatusHandler.Version)
	mux.HandleFunc("/api/v1/queue/stats", s.app.StatusHandler.QueueStats)
	mux.HandleFunc("/api/v1/results/recent", s.app.StatusHandler.RecentResults)

	return mux
}
