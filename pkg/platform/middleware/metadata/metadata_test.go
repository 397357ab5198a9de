package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"gateway header wins", map[string]string{"Cf-Connecting-Ip": "203.0.113.7", "X-Forwarded-For": "10.0.0.1"}, "", "203.0.113.7"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, "", "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": " 192.0.2.9 "}, "", "192.0.2.9"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}
