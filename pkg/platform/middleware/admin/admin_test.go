package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		expected string
		sent     string
		status   int
	}{
		{name: "matching token", expected: "s3cret", sent: "s3cret", status: http.StatusNoContent},
		{name: "wrong token", expected: "s3cret", sent: "nope", status: http.StatusUnauthorized},
		{name: "missing token", expected: "s3cret", sent: "", status: http.StatusUnauthorized},
		{name: "unconfigured token", expected: "", sent: "", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/search/lookup/refresh", nil)
			if tt.sent != "" {
				req.Header.Set(Header, tt.sent)
			}
			rec := httptest.NewRecorder()

			RequireAdminToken(tt.expected, logger)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), "unauthorized")
			}
		})
	}
}
