package store

import (
	"context"
	"sync"
	"time"

	"sowell/internal/ratelimit/models"
)

// InMemoryStore keeps sliding windows in process memory. Limits are per
// instance, so it suits single-node and test deployments.
type InMemoryStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{buckets: make(map[string][]time.Time), now: time.Now}
}

// Allow records a request for key if p still has room.
func (s *InMemoryStore) Allow(_ context.Context, key string, p models.Policy) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := trim(s.buckets[key], now.Add(-p.Window))
	if len(stamps) >= p.Limit {
		s.buckets[key] = stamps
		return &models.Result{Allowed: false, Limit: p.Limit, ResetAt: stamps[0].Add(p.Window)}, nil
	}
	stamps = append(stamps, now)
	s.buckets[key] = stamps
	return &models.Result{
		Allowed:   true,
		Limit:     p.Limit,
		Remaining: p.Limit - len(stamps),
		ResetAt:   stamps[0].Add(p.Window),
	}, nil
}

// trim drops timestamps at or before cutoff.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
