// Package httptransport assembles the HTTP surface: shared middleware, health
// and metrics endpoints, and the routes of every bounded context.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sowell/pkg/platform/httputil"
	"sowell/pkg/platform/middleware/metadata"
	"sowell/pkg/platform/middleware/request"
	"sowell/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Logger *slog.Logger
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
	// RateLimit runs ahead of Identity on every context route. Nil disables it.
	RateLimit func(http.Handler) http.Handler
	// Identity guards every context route. Nil leaves them open.
	Identity func(http.Handler) http.Handler
	Health   map[string]HealthCheck
}

// NewRouter wires the middleware chain and mounts every handler behind the
// identity check. /health and /metrics stay outside it.
func NewRouter(cfg RouterConfig, handlers ...Registrar) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler(cfg.Health, logger))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		if cfg.Identity != nil {
			r.Use(cfg.Identity)
		}
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       http.StatusText(status),
			"dependencies": results,
		})
	}
}
