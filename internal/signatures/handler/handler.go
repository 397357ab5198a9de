package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sowell/internal/signatures/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, req models.VerifyRequest) (*models.CollectedSignature, error)
	StatusCounts(ctx context.Context, sheetID *int64) ([]models.StatusCount, error)
}

// Handler serves signature endpoints.
type Handler struct {
	signatures Service
	logger     *slog.Logger
}

// New creates a signatures Handler.
func New(signatures Service, logger *slog.Logger) *Handler {
	return &Handler{signatures: signatures, logger: logger}
}

// Register mounts the signature routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signatures/verify", h.handleVerify)
	r.Get("/signatures/stats", h.handleStats)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	sig, err := h.signatures.Verify(ctx, req)
	if err != nil {
		level := slog.LevelWarn
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "verify failed",
			"sheet_id", req.SheetID,
			"row_number", req.RowNumber,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sig)
}

type statsResponse struct {
	SheetID *int64               `json:"sheet_id,omitempty"`
	Counts  []models.StatusCount `json:"counts"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var sheetID *int64
	if raw := r.URL.Query().Get("sheet_id"); raw != "" {
		id, err := domain.ParseID("sheet_id", raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		sheetID = &id
	}

	counts, err := h.signatures.StatusCounts(ctx, sheetID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count signatures",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{SheetID: sheetID, Counts: counts})
}
