// Package audit publishes lifecycle events for sheets, batches and signatures.
//
// Events are emitted after the owning transaction commits. Sink failures are
// logged and counted, never returned: the lifecycle change has already happened.
package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sowell/pkg/requestcontext"
)

// Sink delivers one event to its destination.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher stamps events with request metadata and hands them to a sink.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates a publisher writing to sink.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in id, time, actor and request id, then writes the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.sink == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Caller(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	start := time.Now()
	if err := p.sink.Write(ctx, event); err != nil {
		p.metrics.incFailures(event.Type)
		p.logger.ErrorContext(ctx, "audit event delivery failed",
			"event", event.Type,
			"event_id", event.ID,
			"sheet_id", event.SheetID,
			"batch_id", event.BatchID,
			"request_id", event.RequestID,
			"error", err,
		)
		return
	}
	p.metrics.observe(event.Type, time.Since(start))
}

// Emitter is the port services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
