package models

import (
	"math"
	"time"
)

// Policy allows Limit requests per sliding Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns whole seconds until the window frees a slot, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Key builds the bucket key for a client address.
func Key(class, clientIP string) string {
	return "ratelimit:" + class + ":" + clientIP
}
