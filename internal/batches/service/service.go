// Package service runs the batch lifecycle: one batch is built at a time,
// closed sheets are added to it, and every status change it makes is carried
// to its member sheets in the same transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"sowell/internal/audit"
	"sowell/internal/batches/metrics"
	"sowell/internal/batches/models"
	sheets "sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
	"sowell/pkg/requestcontext"
)

// Store persists batches.
type Store interface {
	Create(ctx context.Context) (*models.Batch, bool, error)
	FindByID(ctx context.Context, id int64) (*models.Batch, error)
	FindBuilding(ctx context.Context) (*models.Batch, error)
	List(ctx context.Context) ([]models.Batch, error)
	Transition(ctx context.Context, id int64, from, to models.Status, u models.Update) error
}

// Sheets is the part of the sheet store batches drive.
type Sheets interface {
	FindByID(ctx context.Context, id int64) (*sheets.Sheet, error)
	AttachToBatch(ctx context.Context, id, batchID int64) error
	CascadeStatus(ctx context.Context, batchID int64, from []sheets.Status, to sheets.Status) (int64, error)
	ListByBatch(ctx context.Context, batchID int64) ([]sheets.Sheet, error)
	ListByStatus(ctx context.Context, status sheets.Status) ([]sheets.Sheet, error)
}

// Signatures tallies what was recorded on each sheet.
type Signatures interface {
	TallyBySheet(ctx context.Context, sheetIDs []int64) (map[int64]sheets.Tally, error)
}

// Service is the batch lifecycle manager.
type Service struct {
	store      Store
	sheets     Sheets
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

// New constructs the batch lifecycle manager.
func New(store Store, sheetStore Sheets, signatures Signatures, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:      store,
		sheets:     sheetStore,
		signatures: signatures,
		tx:         tx,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a Building batch. When one is already building it is returned
// unchanged with created=false.
func (s *Service) Create(ctx context.Context) (*models.Batch, bool, error) {
	b, created, err := s.store.Create(ctx)
	if err != nil {
		return nil, false, s.translate(ctx, "create batch", 0, err)
	}
	if !created {
		return b, false, nil
	}

	s.metrics.IncCreated()
	s.logger.InfoContext(ctx, "batch created",
		"batch_id", b.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{Type: audit.EventBatchCreated, BatchID: b.ID, To: string(models.StatusBuilding)})
	return b, true, nil
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, id int64) (*models.Batch, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load batch", id, err)
	}
	return b, nil
}

// List returns every batch, newest first.
func (s *Service) List(ctx context.Context) ([]models.Batch, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, s.translate(ctx, "list batches", 0, err)
	}
	return out, nil
}

// AddSheet puts a Closed sheet into the Building batch and marks it
// Pre-shipment. It fails with NotEligible when the sheet is not Closed or no
// batch is building.
func (s *Service) AddSheet(ctx context.Context, sheetID int64) (*sheets.Sheet, error) {
	if sheetID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "sheet_id must be a positive integer")
	}

	var (
		batchID int64
		added   *sheets.Sheet
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		building, err := s.store.FindBuilding(ctx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.metrics.IncRejected("no_building_batch")
				return dErrors.Wrap(err, dErrors.CodeNotEligible, "no batch is building")
			}
			return err
		}
		batchID = building.ID

		sh, err := s.sheets.FindByID(ctx, sheetID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("sheet %d not found", sheetID))
			}
			return err
		}
		if sh.Status != sheets.StatusClosed || sh.BatchID != nil {
			s.metrics.IncRejected("sheet_not_closed")
			return dErrors.Newf(dErrors.CodeNotEligible,
				"sheet %d is %s; only %s sheets can be batched", sheetID, sh.Status, sheets.StatusClosed)
		}
		if err := s.sheets.AttachToBatch(ctx, sheetID, batchID); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				s.metrics.IncRejected("sheet_not_closed")
				return dErrors.Wrap(err, dErrors.CodeNotEligible,
					fmt.Sprintf("sheet %d is no longer %s", sheetID, sheets.StatusClosed))
			}
			return err
		}
		added, err = s.sheets.FindByID(ctx, sheetID)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, "add sheet to batch", batchID, err)
	}

	s.logger.InfoContext(ctx, "sheet added to batch",
		"batch_id", batchID,
		"sheet_id", sheetID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:    audit.EventSheetAddedToBatch,
		BatchID: batchID,
		SheetID: sheetID,
		From:    string(sheets.StatusClosed),
		To:      string(sheets.StatusPreShipment),
	})
	return added, nil
}

// Close ends intake on a Building batch and moves its Closed members to
// Pre-shipment. Members already Pre-shipment are left as they are.
func (s *Service) Close(ctx context.Context, id int64) (*models.Batch, error) {
	return s.advance(ctx, id, models.StepClose, models.Update{}, audit.EventBatchClosed, nil)
}

// Ship records the carrier, tracking number and ship date of a Pre-shipment
// batch and marks it and its members Shipped.
func (s *Service) Ship(ctx context.Context, id int64, shipment models.Shipment) (*models.Batch, error) {
	shipment = shipment.Normalize()
	if err := shipment.Validate(); err != nil {
		return nil, err
	}
	return s.advance(ctx, id, models.StepShip, models.Update{Shipment: &shipment}, audit.EventBatchShipped,
		map[string]string{
			"carrier":         shipment.Carrier,
			"tracking_number": shipment.TrackingNumber,
			"ship_date":       shipment.ShipDate.String(),
		})
}

// Deliver records the arrival of a Shipped batch and moves it and its members
// into Verification.
func (s *Service) Deliver(ctx context.Context, id int64, arrival domain.Date) (*models.Batch, error) {
	if arrival.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "arrival_date is required")
	}
	return s.advance(ctx, id, models.StepDeliver, models.Update{ArrivalDate: arrival}, audit.EventBatchDelivered,
		map[string]string{"arrival_date": arrival.String()})
}

// Complete finishes verification of a batch and its members.
func (s *Service) Complete(ctx context.Context, id int64) (*models.Batch, error) {
	return s.advance(ctx, id, models.StepComplete, models.Update{}, audit.EventBatchCompleted, nil)
}

// advance applies step to the batch and cascades it to the members in one
// transaction. Nothing changes unless both succeed.
func (s *Service) advance(ctx context.Context, id int64, step models.Step, u models.Update, event audit.EventType, detail map[string]string) (*models.Batch, error) {
	if id <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "batch_id must be a positive integer")
	}

	var (
		cascaded int64
		updated  *models.Batch
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Transition(ctx, id, step.From, step.To, u); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				s.metrics.IncRejected("wrong_status")
				return dErrors.Wrap(err, dErrors.CodeConflict,
					fmt.Sprintf("batch %d must be %s to %s", id, step.From, step.Name))
			}
			return err
		}
		n, err := s.sheets.CascadeStatus(ctx, id, step.SheetsFrom, step.SheetsTo)
		if err != nil {
			return err
		}
		cascaded = n
		updated, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, step.Name+" batch", id, err)
	}

	s.metrics.IncTransition(string(step.From), string(step.To), cascaded)
	s.logger.InfoContext(ctx, "batch advanced",
		"batch_id", id,
		"from", step.From,
		"to", step.To,
		"sheets", cascaded,
		"request_id", requestcontext.RequestID(ctx),
	)
	if detail == nil {
		detail = map[string]string{}
	}
	detail["sheets"] = strconv.FormatInt(cascaded, 10)
	s.emit(ctx, audit.Event{Type: event, BatchID: id, From: string(step.From), To: string(step.To), Detail: detail})
	return updated, nil
}

// Stats breaks a batch down per member sheet with totals across them.
func (s *Service) Stats(ctx context.Context, id int64) (*models.Stats, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, "load batch", id, err)
	}
	stats, err := s.stats(ctx, *b)
	if err != nil {
		return nil, s.translate(ctx, "batch stats", id, err)
	}
	return stats, nil
}

func (s *Service) stats(ctx context.Context, b models.Batch) (*models.Stats, error) {
	members, err := s.sheets.ListByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, sh := range members {
		ids[i] = sh.ID
	}
	tallies, err := s.signatures.TallyBySheet(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats := models.NewStats(b, members, tallies)
	return &stats, nil
}

// Overview lists the closed sheets waiting for a batch and, when one is
// building, that batch with its statistics.
func (s *Service) Overview(ctx context.Context) (*models.Overview, error) {
	closed, err := s.sheets.ListByStatus(ctx, sheets.StatusClosed)
	if err != nil {
		return nil, s.translate(ctx, "list closed sheets", 0, err)
	}
	out := &models.Overview{Awaiting: make([]sheets.Sheet, 0, len(closed))}
	for _, sh := range closed {
		if sh.BatchID == nil {
			out.Awaiting = append(out.Awaiting, sh)
		}
	}

	building, err := s.store.FindBuilding(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return out, nil
	case err != nil:
		return nil, s.translate(ctx, "find building batch", 0, err)
	}
	if out.Building, err = s.stats(ctx, *building); err != nil {
		return nil, s.translate(ctx, "batch stats", building.ID, err)
	}
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
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("batch %d not found", id))
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, op+" conflicted with a concurrent change")
	case errors.Is(err, sentinel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	}
	s.logger.ErrorContext(ctx, "batch store failure",
		"op", op,
		"batch_id", id,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
