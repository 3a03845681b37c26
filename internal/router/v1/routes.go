package v1

import (
	"net/http"

	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the /v1 JSON API
// limit guards every endpoint that calls the geolocation provider
func SetupRoutes(lookups *handler.LookupHandler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/lookup?ip=<query>
	r.With(limit).Get("/lookup", lookups.Lookup)

	return r
}
