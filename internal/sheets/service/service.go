// Package service manages the sheet lifecycle from printing through closing.
// Batch-stage statuses are set only by the batch service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"sowell/internal/audit"
	"sowell/internal/sheets/metrics"
	"sowell/internal/sheets/models"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
	"sowell/pkg/requestcontext"
)

// MaxPrint bounds a single print run.
const MaxPrint = 500

// Store persists sheets and their reference data.
type Store interface {
	Print(ctx context.Context, count int) ([]models.Sheet, error)
	FindByID(ctx context.Context, id int64) (*models.Sheet, error)
	Advance(ctx context.Context, id int64, from, to models.Status) error
	Close(ctx context.Context, id int64, c models.Closing) error
	StatusCounts(ctx context.Context) (map[models.Status]int64, error)
	Catalog(ctx context.Context, kind models.CatalogKind) ([]models.StatusDefinition, error)
	Circulators(ctx context.Context) ([]models.Circulator, error)
	FindCirculator(ctx context.Context, id int64) (*models.Circulator, error)
	Notaries(ctx context.Context) ([]models.Notary, error)
	FindNotary(ctx context.Context, id int64) (*models.Notary, error)
}

// Signatures reads what has been recorded on sheets.
type Signatures interface {
	TallyBySheet(ctx context.Context, sheetIDs []int64) (map[int64]models.Tally, error)
	PrintRows(ctx context.Context, sheetID int64) ([]models.PrintRow, error)
}

// Service is the sheet lifecycle manager.
type Service struct {
	store      Store
	signatures Signatures
	tx         txcontext.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) {
		s.audit = e
	}
}

// New constructs the sheet lifecycle manager.
func New(store Store, signatures Signatures, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:      store,
		signatures: signatures,
		tx:         tx,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Print creates count blank sheets ready for the field.
func (s *Service) Print(ctx context.Context, count int) ([]models.Sheet, error) {
	if count < 1 || count > MaxPrint {
		return nil, dErrors.Newf(dErrors.CodeValidation, "count must be between 1 and %d", MaxPrint)
	}
	printed, err := s.store.Print(ctx, count)
	if err != nil {
		return nil, s.translate(ctx, "print sheets", 0, err)
	}
	s.metrics.AddPrinted(len(printed))
	s.logger.InfoContext(ctx, "sheets printed",
		"count", len(printed),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:   audit.EventSheetsPrinted,
		To:     string(models.StatusPrinted),
		Detail: map[string]string{"count": strconv.Itoa(len(printed))},
	})
	return printed, nil
}

// Get returns one sheet.
func (s *Service) Get(ctx context.Context, id int64) (*models.Sheet, error) {
	sh, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load sheet", id, err)
	}
	return sh, nil
}

// Advance moves a sheet one step along the field workflow. Only Printed to
// Signing and Signing to Summarizing may be requested; any other pair fails
// with an invalid-transition error naming both ends and leaves the sheet as
// it was.
func (s *Service) Advance(ctx context.Context, id int64, to string) (*models.Sheet, error) {
	next, err := models.ParseStatus(to)
	if err != nil {
		return nil, err
	}

	var (
		from    models.Status
		updated *models.Sheet
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sh, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = sh.Status
		if !from.CanAdvanceTo(next) {
			s.metrics.IncRejected("invalid_transition")
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"sheet %d cannot move from %s to %s", id, from, next)
		}
		if err := s.store.Advance(ctx, id, from, next); err != nil {
			return err
		}
		updated, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, "advance sheet", id, err)
	}

	s.metrics.IncTransition(string(from), string(next))
	s.logger.InfoContext(ctx, "sheet advanced",
		"sheet_id", id,
		"from", from,
		"to", next,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{Type: audit.EventSheetAdvanced, SheetID: id, From: string(from), To: string(next)})
	return updated, nil
}

// Close stamps the circulator, notary and notarization date onto a
// Summarizing sheet and closes it. The sheet is either fully closed or left
// untouched.
func (s *Service) Close(ctx context.Context, id int64, c models.Closing) (*models.Sheet, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var closed *models.Sheet
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindCirculator(ctx, c.CollectorID); err != nil {
			return notFoundAs(err, "collector %d not found", c.CollectorID)
		}
		if _, err := s.store.FindNotary(ctx, c.NotaryID); err != nil {
			return notFoundAs(err, "notary %d not found", c.NotaryID)
		}
		if err := s.store.Close(ctx, id, c); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				s.metrics.IncRejected("not_summarizing")
				return dErrors.Wrap(err, dErrors.CodeConflict,
					fmt.Sprintf("sheet %d must be %s to close", id, models.StatusSummarizing))
			}
			return err
		}
		var err error
		closed, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, "close sheet", id, err)
	}

	s.metrics.IncTransition(string(models.StatusSummarizing), string(models.StatusClosed))
	s.logger.InfoContext(ctx, "sheet closed",
		"sheet_id", id,
		"collector_id", c.CollectorID,
		"notary_id", c.NotaryID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:    audit.EventSheetClosed,
		SheetID: id,
		From:    string(models.StatusSummarizing),
		To:      string(models.StatusClosed),
		Detail: map[string]string{
			"collector_id": strconv.FormatInt(c.CollectorID, 10),
			"notary_id":    strconv.FormatInt(c.NotaryID, 10),
			"notarized_on": c.NotarizedOn.String(),
		},
	})
	return closed, nil
}

func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

// Stats derives the signature totals and valid rate of one sheet.
func (s *Service) Stats(ctx context.Context, id int64) (*models.Stats, error) {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return nil, s.translate(ctx, "load sheet", id, err)
	}
	tallies, err := s.signatures.TallyBySheet(ctx, []int64{id})
	if err != nil {
		return nil, s.translate(ctx, "tally sheet", id, err)
	}
	stats := models.NewStats(id, tallies[id])
	return &stats, nil
}

// StatusCounts returns the number of sheets in every status, in lifecycle order.
func (s *Service) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	counts, err := s.store.StatusCounts(ctx)
	if err != nil {
		return nil, s.translate(ctx, "count sheets", 0, err)
	}
	out := make([]models.StatusCount, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		out = append(out, models.StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

// Catalog returns the display definitions of one status family.
func (s *Service) Catalog(ctx context.Context, kind models.CatalogKind) ([]models.StatusDefinition, error) {
	defs, err := s.store.Catalog(ctx, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown catalog %q", kind)
		}
		return nil, s.translate(ctx, "load catalog", 0, err)
	}
	return defs, nil
}

func (s *Service) Circulators(ctx context.Context) ([]models.Circulator, error) {
	out, err := s.store.Circulators(ctx)
	if err != nil {
		return nil, s.translate(ctx, "list circulators", 0, err)
	}
	return out, nil
}

func (s *Service) Notaries(ctx context.Context) ([]models.Notary, error) {
	out, err := s.store.Notaries(ctx)
	if err != nil {
		return nil, s.translate(ctx, "list notaries", 0, err)
	}
	return out, nil
}

// Printout assembles the printable sheet: all twelve lines, blanks included,
// with the circulator and notary once the sheet is closed.
func (s *Service) Printout(ctx context.Context, id int64) (*models.Printout, error) {
	sh, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load sheet", id, err)
	}
	out := &models.Printout{Sheet: *sh}
	if sh.CollectorID != nil {
		if out.Circulator, err = s.store.FindCirculator(ctx, *sh.CollectorID); err != nil {
			return nil, s.translate(ctx, "load circulator", id, err)
		}
	}
	if sh.NotaryID != nil {
		if out.Notary, err = s.store.FindNotary(ctx, *sh.NotaryID); err != nil {
			return nil, s.translate(ctx, "load notary", id, err)
		}
	}
	rows, err := s.signatures.PrintRows(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load sheet rows", id, err)
	}
	out.Rows = models.PadRows(rows)
	return out, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}

// translate maps store facts to domain errors. Domain errors pass through.
func (s *Service) translate(ctx context.Context, op string, id int64, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("sheet %d not found", id))
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("sheet %d changed status concurrently", id))
	case errors.Is(err, sentinel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	}
	s.logger.ErrorContext(ctx, "sheet store failure",
		"op", op,
		"sheet_id", id,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
