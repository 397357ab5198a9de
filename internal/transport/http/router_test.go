package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/pkg/platform/middleware/request"
	"sowell/pkg/requestcontext"
)

type echoHandler struct{}

func (echoHandler) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"request_id": requestcontext.RequestID(ctx),
			"caller":     requestcontext.Caller(ctx),
		})
	})
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterSetsRequestID(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: discard(), Gatherer: prometheus.NewRegistry()}, echoHandler{})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(request.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(request.HeaderRequestID))
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "req-123", body["request_id"])
}

func TestRouterIdentityGuardsContextRoutesOnly(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	router := NewRouter(RouterConfig{Logger: discard(), Gatherer: prometheus.NewRegistry(), Identity: deny}, echoHandler{})

	for path, want := range map[string]int{
		"/echo":    http.StatusUnauthorized,
		"/health":  http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, want, w.Code)
		})
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	router := NewRouter(RouterConfig{
		Logger:   discard(),
		Gatherer: prometheus.NewRegistry(),
		Health: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"Service Unavailable","dependencies":{"postgres":"ok","redis":"unavailable"}}`, w.Body.String())
}

func TestRouterRecoversFromPanics(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: discard(), Gatherer: prometheus.NewRegistry()}, panicHandler{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type panicHandler struct{}

func (panicHandler) Register(r chi.Router) {
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func TestRouterRateLimitRunsBeforeIdentity(t *testing.T) {
	refuse := func(status int) func(http.Handler) http.Handler {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			})
		}
	}
	router := NewRouter(RouterConfig{
		Logger:    discard(),
		Gatherer:  prometheus.NewRegistry(),
		RateLimit: refuse(http.StatusTooManyRequests),
		Identity:  refuse(http.StatusUnauthorized),
	}, echoHandler{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
