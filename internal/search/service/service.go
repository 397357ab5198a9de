// Package service implements the matching engine: it resolves partial or
// free-text identity claims to ranked voter candidates. It never writes.
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
	"sowell/internal/search/metrics"
	"sowell/internal/search/models"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/sentinel"
	"sowell/pkg/requestcontext"
)

// Store runs compiled searches.
type Store interface {
	Wildcard(ctx context.Context, q models.WildcardQuery, limit int) ([]models.Candidate, error)
	Ranked(ctx context.Context, c models.Criteria, limit int) ([]models.Candidate, error)
}

// Classifier lists the classification values used to build search filters.
type Classifier interface {
	States(ctx context.Context) ([]string, error)
	Directions(ctx context.Context) (*electorate.Directions, error)
	StreetTypes(ctx context.Context) ([]electorate.ValueCount, error)
}

// Refresher rebuilds the ranked-mode lookup projection from the roll.
type Refresher interface {
	RefreshLookup(ctx context.Context) error
}

// Invalidator drops cached classification aggregates.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Limits bounds result size and time.
type Limits struct {
	Ranked   int
	Wildcard int
	Timeout  time.Duration
}

// DefaultLimits are used for any zero field of the configured limits.
var DefaultLimits = Limits{Ranked: 50, Wildcard: 40, Timeout: 5 * time.Second}

// Service is the matching engine.
type Service struct {
	store      Store
	classifier Classifier
	limits     Limits
	weights    models.Weights
	refresher  Refresher
	audit      audit.Emitter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
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

// WithRefresher enables RefreshLookup.
func WithRefresher(r Refresher) Option {
	return func(s *Service) {
		s.refresher = r
	}
}

func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) {
		s.audit = e
	}
}

// WithLimits overrides the default limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(s *Service) {
		if l.Ranked > 0 {
			s.limits.Ranked = l.Ranked
		}
		if l.Wildcard > 0 {
			s.limits.Wildcard = l.Wildcard
		}
		if l.Timeout > 0 {
			s.limits.Timeout = l.Timeout
		}
	}
}

func WithWeights(w models.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// New constructs the matching engine.
func New(store Store, classifier Classifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		classifier: classifier,
		limits:     DefaultLimits,
		weights:    models.DefaultWeights,
		logger:     slog.Default(),
		tracer:     otel.Tracer("sowell/search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns candidates for criteria, best first, bounded by the mode's
// limit. Empty criteria yield an empty result without touching the store. A
// search that exceeds its time budget fails with a timeout error rather than
// returning a partial result.
func (s *Service) Search(ctx context.Context, criteria models.Criteria) ([]models.Candidate, error) {
	criteria = criteria.Normalize()
	if criteria.Mode != models.ModeRanked && criteria.Mode != models.ModeWildcard {
		s.metrics.IncRejected()
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown search mode %q", criteria.Mode)
	}
	if criteria.Limit < 0 {
		s.metrics.IncRejected()
		return nil, dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	}
	if criteria.IsEmpty() {
		return []models.Candidate{}, nil
	}

	mode := string(criteria.Mode)
	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.mode", mode),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var (
		candidates []models.Candidate
		err        error
	)
	switch criteria.Mode {
	case models.ModeWildcard:
		candidates, err = s.searchWildcard(ctx, criteria)
	default:
		candidates, err = s.searchRanked(ctx, criteria)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, s.translate(ctx, mode, err)
	}

	span.SetAttributes(attribute.Int("search.results", len(candidates)))
	s.metrics.ObserveSearch(mode, start, len(candidates))
	s.logger.DebugContext(ctx, "search completed",
		"mode", mode,
		"results", len(candidates),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return candidates, nil
}

func (s *Service) searchWildcard(ctx context.Context, c models.Criteria) ([]models.Candidate, error) {
	q, err := models.CompileWildcard(c)
	if err != nil {
		s.metrics.IncRejected()
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	limit := s.limit(c.Limit, s.limits.Wildcard)
	candidates, err := s.store.Wildcard(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return truncate(candidates, limit), nil
}

func (s *Service) searchRanked(ctx context.Context, c models.Criteria) ([]models.Candidate, error) {
	limit := s.limit(c.Limit, s.limits.Ranked)
	candidates, err := s.store.Ranked(ctx, c, limit)
	if err != nil {
		return nil, err
	}
	// Rank the whole set before truncating so the best matches survive.
	models.Rank(candidates, s.weights)
	return truncate(candidates, limit), nil
}

// withTimeout applies the configured budget unless the caller's deadline is sooner.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= s.limits.Timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.limits.Timeout)
}

func (s *Service) translate(ctx context.Context, mode string, err error) error {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.metrics.IncTimeout(mode)
		s.logger.WarnContext(ctx, "search timed out",
			"mode", mode,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "search exceeded its time budget")
	}
	s.logger.ErrorContext(ctx, "search failed",
		"mode", mode,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "search failed")
}

func (s *Service) limit(requested, max int) int {
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

func truncate(c []models.Candidate, n int) []models.Candidate {
	if len(c) > n {
		return c[:n]
	}
	return c
}

// States lists distinct states on the roll.
func (s *Service) States(ctx context.Context) ([]string, error) {
	states, err := s.classifier.States(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list states")
	}
	return states, nil
}

// Directions lists distinct pre- and post-directions with counts.
func (s *Service) Directions(ctx context.Context) (*electorate.Directions, error) {
	d, err := s.classifier.Directions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list directions")
	}
	return d, nil
}

// StreetTypes lists distinct street types with counts.
func (s *Service) StreetTypes(ctx context.Context) ([]electorate.ValueCount, error) {
	t, err := s.classifier.StreetTypes(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list street types")
	}
	return t, nil
}

// RefreshLookup rebuilds the lookup projection and drops cached classification
// aggregates so the next read reflects the refreshed roll.
func (s *Service) RefreshLookup(ctx context.Context) error {
	if s.refresher == nil {
		return dErrors.New(dErrors.CodeInternal, "lookup refresh is not configured")
	}
	start := time.Now()
	if err := s.refresher.RefreshLookup(ctx); err != nil {
		if errors.Is(err, sentinel.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "lookup refresh timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh lookup")
	}
	if inv, ok := s.classifier.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate classification cache", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "lookup projection refreshed",
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Type:   audit.EventLookupRefreshed,
			Detail: map[string]string{"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10)},
		})
	}
	return nil
}
