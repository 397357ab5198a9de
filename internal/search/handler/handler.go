package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	electorate "sowell/internal/electorate/models"
	"sowell/internal/search/models"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Service defines the matching-engine operations exposed over HTTP.
type Service interface {
	Search(ctx context.Context, criteria models.Criteria) ([]models.Candidate, error)
	States(ctx context.Context) ([]string, error)
	Directions(ctx context.Context) (*electorate.Directions, error)
	StreetTypes(ctx context.Context) ([]electorate.ValueCount, error)
	RefreshLookup(ctx context.Context) error
}

// Handler serves voter search endpoints.
type Handler struct {
	search Service
	logger *slog.Logger
	admin  func(http.Handler) http.Handler
}

// New creates a search Handler.
func New(search Service, logger *slog.Logger) *Handler {
	return &Handler{search: search, logger: logger}
}

// WithAdminGuard puts mw in front of the operator-only routes.
func (h *Handler) WithAdminGuard(mw func(http.Handler) http.Handler) *Handler {
	h.admin = mw
	return h
}

// Register mounts the search routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/search", h.handleSearch)
	r.Get("/search/states", h.handleStates)
	r.Get("/search/directions", h.handleDirections)
	r.Get("/search/street-types", h.handleStreetTypes)

	operator := r
	if h.admin != nil {
		operator = r.With(h.admin)
	}
	operator.Post("/search/lookup/refresh", h.handleRefreshLookup)
}

type searchResponse struct {
	Candidates []models.Candidate `json:"candidates"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var criteria models.Criteria
	if err := httputil.DecodeJSON(r, &criteria); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if mode := r.URL.Query().Get("mode"); mode != "" {
		m, ok := models.ParseMode(mode)
		if !ok {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", mode))
			return
		}
		criteria.Mode = m
	}

	candidates, err := h.search.Search(ctx, criteria)
	if err != nil {
		h.logFailure(ctx, "search failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{Candidates: candidates})
}

func (h *Handler) handleStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.search.States(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "failed to list states", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"states": states})
}

func (h *Handler) handleDirections(w http.ResponseWriter, r *http.Request) {
	directions, err := h.search.Directions(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "failed to list directions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, directions)
}

func (h *Handler) handleStreetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.search.StreetTypes(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "failed to list street types", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]electorate.ValueCount{"street_types": types})
}

func (h *Handler) handleRefreshLookup(w http.ResponseWriter, r *http.Request) {
	if err := h.search.RefreshLookup(r.Context()); err != nil {
		h.logFailure(r.Context(), "lookup refresh failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
