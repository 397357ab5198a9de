package audit

import (
	"context"
	"log/slog"

	"sowell/pkg/platform/circuit"
)

// BreakerSink writes to primary while it is healthy and to fallback once the
// breaker opens. An open breaker still probes primary once per cooldown.
type BreakerSink struct {
	primary  Sink
	fallback Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewBreakerSink guards primary with breaker.
func NewBreakerSink(primary, fallback Sink, breaker *circuit.Breaker, logger *slog.Logger) *BreakerSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerSink{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (s *BreakerSink) Write(ctx context.Context, event Event) error {
	if !s.breaker.Allow() {
		return s.fallback.Write(ctx, event)
	}
	err := s.primary.Write(ctx, event)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "audit sink recovered", "breaker", s.breaker.Name())
		}
		return nil
	}
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "audit sink failing over",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	return s.fallback.Write(ctx, event)
}
