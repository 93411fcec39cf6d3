package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/services/filter"
)

// FilterHandler serves the synchronous classification API and the cache
// administration endpoints.
type FilterHandler struct {
	pipeline *filter.Service
	cache    interfaces.ResultCache
	validate *validator.Validate
	logger   arbor.ILogger
}

// batchRequest is the batch request body; the single-item endpoint takes the
// bare item as the body.
type batchRequest struct {
	Items []models.ContentItem `json:"data" validate:"required,min=1,max=100,dive"`
}

// NewFilterHandler creates the classification API handler
func NewFilterHandler(pipeline *filter.Service, cache interfaces.ResultCache, logger arbor.ILogger) *FilterHandler {
	return &FilterHandler{
		pipeline: pipeline,
		cache:    cache,
		validate: validator.New(),
		logger:   logger,
	}
}

// FilterNegativeContent handles POST /api/v1/filter/negative-content.
// Classifies a single item synchronously.
func (h *FilterHandler) FilterNegativeContent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var item models.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	result, fromCache := h.pipeline.Classify(r.Context(), item)
	if result.Error == filter.ErrorEmptyText {
		WriteError(w, http.StatusBadRequest, filter.ErrorEmptyText)
		return
	}

	h.logger.Info().
		Str("item_id", item.ID).
		Int("log_level", result.LogLevel).
		Bool("from_cache", fromCache).
		Msg("Synchronous classification served")

	WriteJSON(w, http.StatusOK, result)
}

// FilterNegativeContentBatch handles POST /api/v1/filter/negative-content/batch.
// Items are evaluated concurrently; per-item failures surface in the item's
// own result, never as a request failure.
func (h *FilterHandler) FilterNegativeContentBatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	results := h.pipeline.ClassifyBatch(r.Context(), req.Items)

	WriteJSON(w, http.StatusOK, results)
}

// CacheStats handles GET /api/v1/cache/stats
func (h *FilterHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.cache.Stats())
}

// ClearCache handles DELETE /api/v1/cache
func (h *FilterHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	h.cache.Clear()
	WriteSuccess(w, "Cache cleared")
}
