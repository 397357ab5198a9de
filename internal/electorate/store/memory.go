package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sowell/internal/electorate/models"
	"sowell/pkg/platform/sentinel"
	strs "sowell/pkg/platform/strings"
)

// Resident pairs a voter with their residence address.
type Resident struct {
	Voter   models.Voter
	Address models.Address
}

// InMemoryStore is a voter roll held in memory for tests and local runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	voters    map[int64]models.Voter
	addresses map[int64]models.Address
}

// NewInMemory creates an empty in-memory voter roll.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		voters:    make(map[int64]models.Voter),
		addresses: make(map[int64]models.Address),
	}
}

// PutAddress loads or replaces an address.
func (s *InMemoryStore) PutAddress(a models.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[a.ID] = a
}

// PutVoter loads or replaces a voter.
func (s *InMemoryStore) PutVoter(v models.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[v.IdentificationNumber] = v
}

func (s *InMemoryStore) FindVoter(_ context.Context, id int64) (*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voters[id]
	if !ok {
		return nil, fmt.Errorf("voter %d: %w", id, sentinel.ErrNotFound)
	}
	return &v, nil
}

func (s *InMemoryStore) FindAddress(_ context.Context, id int64) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %d: %w", id, sentinel.ErrNotFound)
	}
	return &a, nil
}

// Residents returns every voter joined to their residence address, ordered by
// identification number. Voters whose address is missing are skipped, as the
// inner join of the lookup projection would.
func (s *InMemoryStore) Residents(_ context.Context) []Resident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resident, 0, len(s.voters))
	for _, v := range s.voters {
		a, ok := s.addresses[v.ResidenceAddressID]
		if !ok {
			continue
		}
		out = append(out, Resident{Voter: v, Address: a})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Voter.IdentificationNumber < out[j].Voter.IdentificationNumber
	})
	return out
}

func (s *InMemoryStore) States(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]string, 0, len(s.addresses))
	for _, a := range s.addresses {
		states = append(states, a.State)
	}
	states = strs.DedupeAndTrimUpper(states)
	sort.Strings(states)
	return states, nil
}

func (s *InMemoryStore) Directions(_ context.Context) (*models.Directions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.Directions{
		Directions:     s.countBy(func(a models.Address) string { return a.Direction }),
		PostDirections: s.countBy(func(a models.Address) string { return a.PostDirection }),
	}, nil
}

func (s *InMemoryStore) StreetTypes(_ context.Context) ([]models.ValueCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countBy(func(a models.Address) string { return a.StreetType }), nil
}

// RefreshLookup is a no-op: the in-memory roll has no separate projection.
func (s *InMemoryStore) RefreshLookup(context.Context) error {
	return nil
}

func (s *InMemoryStore) countBy(field func(models.Address) string) []models.ValueCount {
	counts := map[string]int64{}
	for _, a := range s.addresses {
		if v := field(a); v != "" {
			counts[v]++
		}
	}
	out := make([]models.ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, models.ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
