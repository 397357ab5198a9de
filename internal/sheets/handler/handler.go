package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Service defines the sheet lifecycle operations exposed over HTTP.
type Service interface {
	Print(ctx context.Context, count int) ([]models.Sheet, error)
	Get(ctx context.Context, id int64) (*models.Sheet, error)
	Advance(ctx context.Context, id int64, to string) (*models.Sheet, error)
	Close(ctx context.Context, id int64, c models.Closing) (*models.Sheet, error)
	Stats(ctx context.Context, id int64) (*models.Stats, error)
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
	Catalog(ctx context.Context, kind models.CatalogKind) ([]models.StatusDefinition, error)
	Circulators(ctx context.Context) ([]models.Circulator, error)
	Notaries(ctx context.Context) ([]models.Notary, error)
	Printout(ctx context.Context, id int64) (*models.Printout, error)
}

// Handler serves sheet endpoints.
type Handler struct {
	sheets Service
	logger *slog.Logger
}

// New creates a sheets Handler.
func New(sheets Service, logger *slog.Logger) *Handler {
	return &Handler{sheets: sheets, logger: logger}
}

// Register mounts the sheet routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sheets", func(r chi.Router) {
		r.Post("/print", h.handlePrint)
		r.Get("/counts", h.handleStatusCounts)
		r.Get("/catalog", h.handleCatalog)
		r.Get("/circulators", h.handleCirculators)
		r.Get("/notaries", h.handleNotaries)
		r.Get("/{sheetID}", h.handleGet)
		r.Post("/{sheetID}/advance", h.handleAdvance)
		r.Post("/{sheetID}/close", h.handleClose)
		r.Get("/{sheetID}/stats", h.handleStats)
		r.Get("/{sheetID}/printout", h.handlePrintout)
	})
}

type printRequest struct {
	Count int `json:"count"`
}

type advanceRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	var req printRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	printed, err := h.sheets.Print(r.Context(), req.Count)
	if err != nil {
		h.fail(w, r, "print sheets failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string][]models.Sheet{"sheets": printed})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sheetID(w, r)
	if !ok {
		return
	}
	sh, err := h.sheets.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get sheet failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sh)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sheetID(w, r)
	if !ok {
		return
	}
	var req advanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sh, err := h.sheets.Advance(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, "advance sheet failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sh)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sheetID(w, r)
	if !ok {
		return
	}
	var req models.Closing
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sh, err := h.sheets.Close(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "close sheet failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sh)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sheetID(w, r)
	if !ok {
		return
	}
	stats, err := h.sheets.Stats(r.Context(), id)
	if err != nil {
		h.fail(w, r, "sheet stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handlePrintout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sheetID(w, r)
	if !ok {
		return
	}
	p, err := h.sheets.Printout(r.Context(), id)
	if err != nil {
		h.fail(w, r, "sheet printout failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleStatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.sheets.StatusCounts(r.Context())
	if err != nil {
		h.fail(w, r, "sheet counts failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]models.StatusCount{"counts": counts})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kind := models.CatalogKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = models.CatalogSheet
	}
	defs, err := h.sheets.Catalog(r.Context(), kind)
	if err != nil {
		h.fail(w, r, "status catalog failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]models.StatusDefinition{"statuses": defs})
}

func (h *Handler) handleCirculators(w http.ResponseWriter, r *http.Request) {
	out, err := h.sheets.Circulators(r.Context())
	if err != nil {
		h.fail(w, r, "list circulators failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]models.Circulator{"circulators": out})
}

func (h *Handler) handleNotaries(w http.ResponseWriter, r *http.Request) {
	out, err := h.sheets.Notaries(r.Context())
	if err != nil {
		h.fail(w, r, "list notaries failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]models.Notary{"notaries": out})
}

func (h *Handler) sheetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := domain.ParseID("sheet_id", chi.URLParam(r, "sheetID"))
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
