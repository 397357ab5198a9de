package testutil

import (
	"net/http"

	"sowell/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context, the way the
// identity middleware would.
func WithCaller(req *http.Request, caller string) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
