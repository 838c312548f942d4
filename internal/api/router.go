package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fenwick/ordna/internal/history"
	"github.com/fenwick/ordna/internal/vaultservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *vaultservice.Service, hist *history.DB, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, hist)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/report", h.GetReport)
	r.Post("/fix", h.Fix)
	r.Get("/pillars", h.ListPillars)
	r.Get("/runs", h.ListRuns)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
