package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sowell/internal/ratelimit/metrics"
	"sowell/internal/ratelimit/models"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Store admits or refuses one request for a key.
type Store interface {
	Allow(ctx context.Context, key string, p models.Policy) (*models.Result, error)
}

type Middleware struct {
	store   Store
	policy  models.Policy
	class   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

// WithClass names the bucket family. Defaults to "api".
func WithClass(class string) Option {
	return func(mw *Middleware) {
		mw.class = class
	}
}

func New(store Store, policy models.Policy, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, policy: policy, class: "api", logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler limits requests per client IP. Store failures let the request through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.store.Allow(ctx, models.Key(m.class, ip), m.policy)
		if err != nil {
			m.metrics.IncErrors()
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"class", m.class,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.metrics.IncRejected()
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", m.class,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:            "rate_limit_exceeded",
				ErrorDescription: "too many requests, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
