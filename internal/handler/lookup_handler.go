package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/middleware"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LookupHandler serves the JSON lookup API
// It deals with HTTP concerns only, the lookup itself lives in the service layer
type LookupHandler struct {
	service *service.TrackerService
	logger  *logger.Logger
}

// NewLookupHandler creates a new lookup handler with the given service
func NewLookupHandler(service *service.TrackerService, log *logger.Logger) *LookupHandler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupHandler{
		service: service,
		logger:  log.WithComponent("LookupHandler"),
	}
}

// Lookup handles GET /v1/lookup?ip=<query>
//
// An empty or missing ip looks up the caller. Every provider failure is
// reported as 502 with the fixed user-facing message.
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("ip")
	if query == "" {
		query = tracker.SelfQuery(middleware.ClientIP(r))
	}

	result, err := h.service.Lookup(r.Context(), query)
	if err != nil {
		log := h.logger.WithRequestID(chimw.GetReqID(r.Context()))
		if errors.Is(err, geo.ErrLookupFailed) {
			log.Warn().Err(err).Str("query", query).Msg("Provider lookup failed")
			respondError(w, http.StatusBadGateway, geo.FailureMessage)
		} else {
			log.Error().Err(err).Str("query", query).Msg("Lookup failed")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
