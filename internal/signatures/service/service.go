// Package service records petition lines and resolves them against the voter roll.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sowell/internal/audit"
	electorate "sowell/internal/electorate/models"
	sheets "sowell/internal/sheets/models"
	"sowell/internal/signatures/metrics"
	"sowell/internal/signatures/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
	"sowell/pkg/requestcontext"
)

// Store persists collected signatures.
type Store interface {
	Upsert(ctx context.Context, sig *models.CollectedSignature) error
	StatusCounts(ctx context.Context, sheetID *int64) (map[models.Status]int64, error)
}

// VoterRoll resolves voter identification numbers.
type VoterRoll interface {
	FindVoter(ctx context.Context, id int64) (*electorate.Voter, error)
	FindAddress(ctx context.Context, id int64) (*electorate.Address, error)
}

// SheetLocker reads a sheet's status and holds it steady until the
// surrounding unit of work ends.
type SheetLocker interface {
	LockStatus(ctx context.Context, sheetID int64) (sheets.Status, error)
}

// Service verifies and records sheet lines.
type Service struct {
	store   Store
	roll    VoterRoll
	sheets  SheetLocker
	tx      txcontext.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Emitter
	tracer  trace.Tracer
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

// New constructs the verification service. tx must cover the stores passed in.
func New(store Store, roll VoterRoll, sheetLocker SheetLocker, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		roll:   roll,
		sheets: sheetLocker,
		tx:     tx,
		logger: slog.Default(),
		tracer: otel.Tracer("sowell/signatures"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify resolves the claim on one sheet line and records the outcome. A
// claim whose voter id is on the roll is recorded as Matched with the roll's
// canonical name and address; any other claim is recorded as No Match Found
// with the fields as written. Verifying a line again replaces the earlier
// entry for that line.
func (s *Service) Verify(ctx context.Context, req models.VerifyRequest) (*models.CollectedSignature, error) {
	start := time.Now()
	req.Claim = req.Claim.Trimmed()
	if err := req.Validate(sheets.RowsPerSheet); err != nil {
		return nil, err
	}
	voterID, err := domain.ParseVoterID(req.Claim.VoterID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "signatures.Verify", trace.WithAttributes(
		attribute.Int64("sheet.id", req.SheetID),
		attribute.Int("sheet.row", req.RowNumber),
	))
	defer span.End()

	var sig *models.CollectedSignature
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		status, err := s.sheets.LockStatus(ctx, req.SheetID)
		if err != nil {
			return err
		}
		if !status.AcceptsSignatures() {
			return dErrors.Newf(dErrors.CodeConflict, "sheet %d is %s and no longer accepts signatures", req.SheetID, status)
		}

		sig, err = s.resolve(ctx, req, voterID)
		if err != nil {
			return err
		}
		return s.store.Upsert(ctx, sig)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		return nil, s.translate(ctx, req, err)
	}

	overwritten := !sig.CreatedAt.Equal(sig.UpdatedAt)
	span.SetAttributes(attribute.String("signature.status", string(sig.Status)))
	s.metrics.ObserveVerified(string(sig.Status), overwritten, start)
	s.logger.InfoContext(ctx, "signature recorded",
		"sheet_id", sig.SheetID,
		"row_number", sig.RowNumber,
		"status", sig.Status,
		"overwritten", overwritten,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Type:    audit.EventSignatureVerified,
			SheetID: sig.SheetID,
			To:      string(sig.Status),
			Detail: map[string]string{
				"row_number":  strconv.Itoa(sig.RowNumber),
				"overwritten": strconv.FormatBool(overwritten),
			},
		})
	}
	return sig, nil
}

// resolve builds the row to store: the roll's record when the voter exists,
// the claim as written otherwise.
func (s *Service) resolve(ctx context.Context, req models.VerifyRequest, voterID int64) (*models.CollectedSignature, error) {
	sig := &models.CollectedSignature{
		SheetID:       req.SheetID,
		RowNumber:     req.RowNumber,
		DateCollected: req.DateCollected,
		Last4:         req.Claim.Last4,
	}

	if voterID != 0 {
		voter, err := s.roll.FindVoter(ctx, voterID)
		switch {
		case err == nil:
			address, err := s.roll.FindAddress(ctx, voter.ResidenceAddressID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil, dErrors.Newf(dErrors.CodeNotFound, "residence address of voter %d not found", voterID)
				}
				return nil, err
			}
			id := voter.IdentificationNumber
			sig.VoterID = &id
			sig.FirstName = voter.FirstName
			sig.LastName = voter.LastName
			sig.FullStreetAddress = address.FullStreetAddress()
			sig.Apartment = address.AptNum
			sig.City = address.City
			sig.State = address.State
			sig.Zip = address.Zip5()
			sig.Status = models.StatusMatched
			return sig, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, err
		}
	}

	c := req.Claim
	sig.FirstName = c.FirstName
	sig.LastName = c.LastName
	sig.FullStreetAddress = c.Address
	sig.Apartment = c.Apartment
	sig.City = c.City
	sig.State = c.State
	sig.Zip = electorate.Address{Zip: c.Zip}.Zip5()
	sig.Status = models.StatusNoMatch
	return sig, nil
}

func (s *Service) translate(ctx context.Context, req models.VerifyRequest, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "sheet "+strconv.FormatInt(req.SheetID, 10)+" not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeValidation, "signature violates a record constraint")
	case errors.Is(err, sentinel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification timed out")
	}
	s.logger.ErrorContext(ctx, "failed to record signature",
		"sheet_id", req.SheetID,
		"row_number", req.RowNumber,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record signature")
}

// StatusCounts returns how many signatures carry each match status, for one
// sheet when sheetID is set or for every sheet otherwise. Every status is
// present, including those with no signatures.
func (s *Service) StatusCounts(ctx context.Context, sheetID *int64) ([]models.StatusCount, error) {
	if sheetID != nil && *sheetID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "sheet_id must be positive")
	}
	counts, err := s.store.StatusCounts(ctx, sheetID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count signatures")
	}
	return models.Histogram(counts), nil
}
