package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	sheets "sowell/internal/sheets/models"
	"sowell/internal/signatures/models"
	"sowell/pkg/platform/sentinel"
)

type lineKey struct {
	sheetID int64
	row     int
}

// InMemoryStore keeps signatures in a map keyed by sheet line.
type InMemoryStore struct {
	mu     sync.RWMutex
	lines  map[lineKey]models.CollectedSignature
	nextID int64
	now    func() time.Time
}

// NewInMemory constructs an empty in-memory signature store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		lines: make(map[lineKey]models.CollectedSignature),
		now:   time.Now,
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, sig *models.CollectedSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lineKey{sig.SheetID, sig.RowNumber}
	now := s.now()
	if existing, ok := s.lines[key]; ok {
		sig.ID = existing.ID
		sig.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		sig.ID = s.nextID
		sig.CreatedAt = now
	}
	sig.UpdatedAt = now
	s.lines[key] = *sig
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, sheetID int64, row int) (*models.CollectedSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.lines[lineKey{sheetID, row}]
	if !ok {
		return nil, fmt.Errorf("signature sheet %d row %d: %w", sheetID, row, sentinel.ErrNotFound)
	}
	return &sig, nil
}

func (s *InMemoryStore) StatusCounts(_ context.Context, sheetID *int64) (map[models.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[models.Status]int64{}
	for k, sig := range s.lines {
		if sheetID != nil && k.sheetID != *sheetID {
			continue
		}
		counts[sig.Status]++
	}
	return counts, nil
}

func (s *InMemoryStore) TallyBySheet(_ context.Context, sheetIDs []int64) (map[int64]sheets.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[int64]struct{}, len(sheetIDs))
	for _, id := range sheetIDs {
		wanted[id] = struct{}{}
	}
	out := map[int64]sheets.Tally{}
	for k, sig := range s.lines {
		if _, ok := wanted[k.sheetID]; !ok {
			continue
		}
		t := out[k.sheetID]
		t.Total++
		if sig.Status.CountsAsMatch() {
			t.Matched++
		}
		collected := sig.DateCollected.Time()
		if t.LastCollected == nil || collected.After(*t.LastCollected) {
			t.LastCollected = &collected
		}
		out[k.sheetID] = t
	}
	return out, nil
}

func (s *InMemoryStore) PrintRows(_ context.Context, sheetID int64) ([]sheets.PrintRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []sheets.PrintRow{}
	for k, sig := range s.lines {
		if k.sheetID != sheetID {
			continue
		}
		out = append(out, sheets.PrintRow{
			RowNumber:     sig.RowNumber,
			VoterID:       sig.VoterID,
			FirstName:     sig.FirstName,
			LastName:      sig.LastName,
			Address:       sig.FullStreetAddress,
			Apartment:     sig.Apartment,
			City:          sig.City,
			State:         sig.State,
			Zip:           sig.Zip,
			DateCollected: sig.DateCollected,
			Last4:         sig.Last4,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowNumber < out[j].RowNumber })
	return out, nil
}
