package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certitrack/internal/platform/middleware"
)

// NewRouter wires the public endpoints. When validator is non-nil, the
// request endpoints require a bearer token and actor identity comes from the
// token claims instead of the request body.
func NewRouter(h *Handler, logger *slog.Logger, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/requests", func(r chi.Router) {
		if validator != nil {
			r.Use(middleware.RequireAuth(validator, logger))
		}
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/transition", h.handleTransition)
		r.Get("/{id}/can-transition", h.handleCanTransition)
		r.Get("/{id}/history", h.handleHistory)
		r.Post("/{id}/attachments", h.handleAttach)
	})

	return r
}
