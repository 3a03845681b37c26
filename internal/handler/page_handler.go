package handler

import (
	"bytes"
	"net/http"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/middleware"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/tracker"
	"github.com/evyataryagoni/iptracker/internal/view"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// PageHandler serves the tracker page
type PageHandler struct {
	service  *service.TrackerService
	renderer *view.Renderer
	logger   *logger.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(service *service.TrackerService, renderer *view.Renderer, log *logger.Logger) *PageHandler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &PageHandler{
		service:  service,
		renderer: renderer,
		logger:   log.WithComponent("PageHandler"),
	}
}

// Show handles GET /: the page starts over with a self-lookup
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	// lookup failures are already part of the state
	state, _ := h.service.Load(r.Context(), sessionID, middleware.ClientIP(r))

	h.render(w, r, state, view.NewSearchForm(""))
}

// Search handles POST / with the form field "ip"
// Empty input leaves the session untouched and renders it again
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	form := view.NewSearchForm(r.FormValue("ip"))

	var query string
	form.Submit(func(q string) { query = q })

	state, _ := h.service.Submit(r.Context(), sessionID, middleware.ClientIP(r), query)

	h.render(w, r, state, form)
}

// render writes the whole page or a 500 if the templates fail
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, state tracker.State, form view.SearchForm) {
	var buf bytes.Buffer
	if err := h.renderer.HTML(&buf, view.NewPage(state, form)); err != nil {
		h.logger.WithRequestID(chimw.GetReqID(r.Context())).
			Error().Err(err).
			Str("session_id", middleware.SessionID(r.Context())).
			Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
