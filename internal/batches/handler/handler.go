package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sowell/internal/batches/models"
	sheets "sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Service defines the batch lifecycle operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context) (*models.Batch, bool, error)
	Get(ctx context.Context, id int64) (*models.Batch, error)
	List(ctx context.Context) ([]models.Batch, error)
	AddSheet(ctx context.Context, sheetID int64) (*sheets.Sheet, error)
	Close(ctx context.Context, id int64) (*models.Batch, error)
	Ship(ctx context.Context, id int64, shipment models.Shipment) (*models.Batch, error)
	Deliver(ctx context.Context, id int64, arrival domain.Date) (*models.Batch, error)
	Complete(ctx context.Context, id int64) (*models.Batch, error)
	Stats(ctx context.Context, id int64) (*models.Stats, error)
	Overview(ctx context.Context) (*models.Overview, error)
}

// Handler serves batch endpoints.
type Handler struct {
	batches Service
	logger  *slog.Logger
}

// New creates a batches Handler.
func New(batches Service, logger *slog.Logger) *Handler {
	return &Handler{batches: batches, logger: logger}
}

// Register mounts the batch routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/batches", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/overview", h.handleOverview)
		r.Post("/sheets", h.handleAddSheet)
		r.Get("/{batchID}", h.handleGet)
		r.Get("/{batchID}/stats", h.handleStats)
		r.Post("/{batchID}/close", h.handleClose)
		r.Post("/{batchID}/ship", h.handleShip)
		r.Post("/{batchID}/deliver", h.handleDeliver)
		r.Post("/{batchID}/complete", h.handleComplete)
	})
}

type createResponse struct {
	Batch   *models.Batch `json:"batch"`
	Created bool          `json:"created"`
}

type addSheetRequest struct {
	SheetID int64 `json:"sheet_id"`
}

type deliverRequest struct {
	ArrivalDate domain.Date `json:"arrival_date"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	b, created, err := h.batches.Create(r.Context())
	if err != nil {
		h.fail(w, r, "create batch failed", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, createResponse{Batch: b, Created: created})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.batches.List(r.Context())
	if err != nil {
		h.fail(w, r, "list batches failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]models.Batch{"batches": out})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := h.batches.Overview(r.Context())
	if err != nil {
		h.fail(w, r, "batch overview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddSheet(w http.ResponseWriter, r *http.Request) {
	var req addSheetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sh, err := h.batches.AddSheet(r.Context(), req.SheetID)
	if err != nil {
		h.fail(w, r, "add sheet to batch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sh)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	b, err := h.batches.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get batch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	stats, err := h.batches.Stats(r.Context(), id)
	if err != nil {
		h.fail(w, r, "batch stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	h.writeBatch(w, r, "close batch failed")(h.batches.Close(r.Context(), id))
}

func (h *Handler) handleShip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	var req models.Shipment
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeBatch(w, r, "ship batch failed")(h.batches.Ship(r.Context(), id, req))
}

func (h *Handler) handleDeliver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	var req deliverRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeBatch(w, r, "deliver batch failed")(h.batches.Deliver(r.Context(), id, req.ArrivalDate))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.batchID(w, r)
	if !ok {
		return
	}
	h.writeBatch(w, r, "complete batch failed")(h.batches.Complete(r.Context(), id))
}

func (h *Handler) writeBatch(w http.ResponseWriter, r *http.Request, msg string) func(*models.Batch, error) {
	return func(b *models.Batch, err error) {
		if err != nil {
			h.fail(w, r, msg, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, b)
	}
}

func (h *Handler) batchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := domain.ParseID("batch_id", chi.URLParam(r, "batchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"path", r.URL.Path,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
