package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fenwick/ordna/internal/history"
	"github.com/fenwick/ordna/internal/vaultservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *vaultservice.Service
	hist *history.DB // nil when the run ledger is disabled
}

// NewHandler creates a new Handler.
func NewHandler(svc *vaultservice.Service, hist *history.DB) *Handler {
	return &Handler{svc: svc, hist: hist}
}

// GetReport handles GET /api/report. A fresh check run is performed per
// request; ?format=markdown returns the rendered task document instead of
// JSON.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Check(r.Context(), time.Now())
	if err != nil {
		slog.Error("report failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(rep.RenderMarkdown()))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Fix handles POST /api/fix: regenerates drifted manifests and returns the
// resulting report together with the number of manifests written.
func (h *Handler) Fix(w http.ResponseWriter, r *http.Request) {
	rep, applied, err := h.svc.Fix(r.Context(), time.Now())
	if err != nil {
		slog.Error("fix failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report":  rep,
		"applied": applied,
	})
}

// pillarSummary is the list representation of one pillar.
type pillarSummary struct {
	Path     string `json:"path"`
	Notes    int    `json:"notes"`
	Captures int    `json:"captures"`
	Actives  int    `json:"actives"`
	Manifest bool   `json:"manifest"`
}

// ListPillars handles GET /api/pillars.
func (h *Handler) ListPillars(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		slog.Error("pillar scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]pillarSummary, len(snap.Pillars))
	for i, p := range snap.Pillars {
		out[i] = pillarSummary{
			Path:     p.Path,
			Notes:    len(p.Notes),
			Captures: len(p.Captures),
			Actives:  len(p.Actives),
			Manifest: p.Manifest.Exists,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pillars": out,
	})
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeJSON(w, http.StatusNotFound, errorBody("run ledger disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.hist.Recent(limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}
