package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/oddsradar/surebet/internal/ingest"
	"github.com/oddsradar/surebet/internal/oddsfeed"
	"github.com/oddsradar/surebet/internal/storage"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

type apiHandler struct {
	coordinator *ingest.Coordinator
	surebets    *surebet.Service
	store       storage.Store
	fetcher     *oddsfeed.Fetcher
	logger      *zap.Logger
}

func newAPIHandler(coordinator *ingest.Coordinator, surebets *surebet.Service, store storage.Store, fetcher *oddsfeed.Fetcher, logger *zap.Logger) *apiHandler {
	return &apiHandler{
		coordinator: coordinator,
		surebets:    surebets,
		store:       store,
		fetcher:     fetcher,
		logger:      logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type surebetsResponse struct {
	Surebets   []surebet.Opportunity `json:"surebets"`
	TotalCount int                   `json:"total_count"`
	Status     string                `json:"status"`
}

type eventsResponse struct {
	Events     []*types.Event `json:"events"`
	TotalCount int            `json:"total_count"`
}

// handleIngest accepts a batch of scraped events and upserts them.
func (h *apiHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var batch []types.EventPayload
	err := json.NewDecoder(r.Body).Decode(&batch)
	if err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.coordinator.Ingest(r.Context(), batch)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyBatch) {
			h.writeError(w, "no events provided", http.StatusBadRequest)
			return
		}
		h.logger.Error("ingest-request-failed", zap.Error(err))
		h.writeError(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

type fetchResponse struct {
	FetchedCount   int            `json:"fetched_count"`
	Report         *ingest.Report `json:"report,omitempty"`
	QuotaUsed      string         `json:"quota_used"`
	QuotaRemaining string         `json:"quota_remaining"`
}

// handleFetch triggers a one-shot pull from The Odds API and ingests the
// result. Guarded by the quota breaker.
func (h *apiHandler) handleFetch(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		h.writeError(w, "odds feed not configured", http.StatusServiceUnavailable)
		return
	}

	payloads, usage, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, oddsfeed.ErrFeedDisabled):
			h.writeError(w, "odds feed temporarily disabled, request quota too low", http.StatusServiceUnavailable)
		case errors.Is(err, oddsfeed.ErrMissingAPIKey):
			h.writeError(w, "odds API key not configured", http.StatusServiceUnavailable)
		default:
			h.logger.Error("fetch-request-failed", zap.Error(err))
			h.writeError(w, "failed to fetch odds from upstream", http.StatusBadGateway)
		}
		return
	}

	resp := fetchResponse{
		FetchedCount:   len(payloads),
		QuotaUsed:      usage.Used,
		QuotaRemaining: usage.Remaining,
	}

	if len(payloads) > 0 {
		report, err := h.coordinator.Ingest(r.Context(), payloads)
		if err != nil {
			h.logger.Error("fetch-ingest-failed", zap.Error(err))
			h.writeError(w, "ingestion failed", http.StatusInternalServerError)
			return
		}
		resp.Report = report
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleSurebets returns current opportunities ranked by profit margin.
func (h *apiHandler) handleSurebets(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.surebets.ListSurebets(r.Context())
	if err != nil {
		h.logger.Error("surebets-request-failed", zap.Error(err))
		h.writeError(w, "failed to list surebets", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, surebetsResponse{
		Surebets:   opportunities,
		TotalCount: len(opportunities),
		Status:     "success",
	})
}

// handleEvents returns all stored events with their outcomes.
func (h *apiHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEventsWithMinOutcomes(r.Context(), 1)
	if err != nil {
		h.logger.Error("events-request-failed", zap.Error(err))
		h.writeError(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, eventsResponse{
		Events:     events,
		TotalCount: len(events),
	})
}

func (h *apiHandler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings(r.Context())
	if err != nil {
		h.logger.Error("settings-request-failed", zap.Error(err))
		h.writeError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

func (h *apiHandler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	err := json.NewDecoder(r.Body).Decode(&updates)
	if err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	for key, value := range updates {
		err = h.store.PutSetting(r.Context(), key, value)
		if err != nil {
			h.logger.Error("setting-update-failed", zap.String("key", key), zap.Error(err))
			h.writeError(w, "failed to update setting "+key, http.StatusInternalServerError)
			return
		}
	}

	settings, err := h.store.Settings(r.Context())
	if err != nil {
		h.writeError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

func (h *apiHandler) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.store.ListTargets(r.Context())
	if err != nil {
		h.logger.Error("targets-request-failed", zap.Error(err))
		h.writeError(w, "failed to list scraper targets", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, targets)
}

func (h *apiHandler) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var target types.ScraperTarget
	err := json.NewDecoder(r.Body).Decode(&target)
	if err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if target.Name == "" || target.URL == "" {
		h.writeError(w, "name and url are required", http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateTarget(r.Context(), target)
	if err != nil {
		h.logger.Error("target-create-failed", zap.Error(err))
		h.writeError(w, "failed to create scraper target", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

func (h *apiHandler) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "invalid target id", http.StatusBadRequest)
		return
	}

	var target types.ScraperTarget
	err = json.NewDecoder(r.Body).Decode(&target)
	if err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	target.ID = id

	updated, err := h.store.UpdateTarget(r.Context(), target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, "scraper target not found", http.StatusNotFound)
			return
		}
		h.logger.Error("target-update-failed", zap.Int64("id", id), zap.Error(err))
		h.writeError(w, "failed to update scraper target", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

func (h *apiHandler) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "invalid target id", http.StatusBadRequest)
		return
	}

	err = h.store.DeleteTarget(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, "scraper target not found", http.StatusNotFound)
			return
		}
		h.logger.Error("target-delete-failed", zap.Int64("id", id), zap.Error(err))
		h.writeError(w, "failed to delete scraper target", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *apiHandler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, errorResponse{Error: message})
}
