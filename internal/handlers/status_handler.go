package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
)

// StatusHandler serves health, version, queue depth and audit log endpoints
type StatusHandler struct {
	broker  interfaces.JobBroker
	records interfaces.RecordStorage
	logger  arbor.ILogger
}

// NewStatusHandler creates the status API handler. records may be nil when
// audit logging is disabled.
func NewStatusHandler(broker interfaces.JobBroker, records interfaces.RecordStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		broker:  broker,
		records: records,
		logger:  logger,
	}
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": common.GetVersion(),
	})
}

// Version handles GET /api/v1/version
func (h *StatusHandler) Version(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// QueueStats handles GET /api/v1/queue/stats
func (h *StatusHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.broker.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to collect queue stats")
		WriteError(w, http.StatusInternalServerError, "Failed to collect queue stats")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// RecentResults handles GET /api/v1/results/recent?limit=N
func (h *StatusHandler) RecentResults(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if h.records == nil {
		WriteError(w, http.StatusNotFound, "Audit log is disabled")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	records, err := h.records.RecentRecords(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load recent records")
		WriteError(w, http.StatusInternalServerError, "Failed to load recent records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": records,
		"count":   len(records),
	})
}
