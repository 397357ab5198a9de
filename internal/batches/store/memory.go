package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sowell/internal/batches/models"
	"sowell/pkg/platform/sentinel"
)

// InMemoryStore keeps batches in a map. The mutex stands in for the partial
// unique index on Building.
type InMemoryStore struct {
	mu      sync.RWMutex
	batches map[int64]*models.Batch
	nextID  int64
	now     func() time.Time
}

// NewInMemory constructs an empty in-memory batch store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		batches: make(map[int64]*models.Batch),
		now:     time.Now,
	}
}

// Put stores b as given, for seeding fixtures in any status.
func (s *InMemoryStore) Put(b models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID > s.nextID {
		s.nextID = b.ID
	}
	cp := b
	s.batches[b.ID] = &cp
}

func (s *InMemoryStore) Create(_ context.Context) (*models.Batch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.building(); b != nil {
		cp := *b
		return &cp, false, nil
	}
	s.nextID++
	now := s.now()
	b := &models.Batch{ID: s.nextID, Status: models.StatusBuilding, CreatedAt: now, UpdatedAt: now}
	s.batches[b.ID] = b
	cp := *b
	return &cp, true, nil
}

func (s *InMemoryStore) building() *models.Batch {
	for _, b := range s.batches {
		if b.Status == models.StatusBuilding {
			return b
		}
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %d: %w", id, sentinel.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) FindBuilding(_ context.Context) (*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.building()
	if b == nil {
		return nil, fmt.Errorf("building batch: %w", sentinel.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Transition(_ context.Context, id int64, from, to models.Status, u models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return fmt.Errorf("batch %d: %w", id, sentinel.ErrNotFound)
	}
	if b.Status != from {
		return fmt.Errorf("batch %d is %s: %w", id, b.Status, sentinel.ErrInvalidState)
	}
	b.Status = to
	if u.Shipment != nil {
		b.Carrier = u.Shipment.Carrier
		b.TrackingNumber = u.Shipment.TrackingNumber
		b.ShipDate = u.Shipment.ShipDate
	}
	if !u.ArrivalDate.IsZero() {
		b.ArrivalDate = u.ArrivalDate
	}
	b.UpdatedAt = s.now()
	return nil
}
