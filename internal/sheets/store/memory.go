package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sowell/internal/sheets/models"
	"sowell/pkg/platform/sentinel"
)

// InMemoryStore mirrors the Postgres store's conditional updates behind a mutex.
type InMemoryStore struct {
	mu          sync.RWMutex
	sheets      map[int64]*models.Sheet
	circulators map[int64]models.Circulator
	notaries    map[int64]models.Notary
	nextID      int64
	now         func() time.Time
}

// NewInMemory constructs an empty in-memory sheet store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		sheets:      make(map[int64]*models.Sheet),
		circulators: make(map[int64]models.Circulator),
		notaries:    make(map[int64]models.Notary),
		now:         time.Now,
	}
}

// PutCirculator adds or replaces a circulator.
func (s *InMemoryStore) PutCirculator(c models.Circulator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circulators[c.ID] = c
}

// PutNotary adds or replaces a notary.
func (s *InMemoryStore) PutNotary(n models.Notary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notaries[n.ID] = n
}

// Put stores sh as given, for seeding fixtures in any status.
func (s *InMemoryStore) Put(sh models.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID > s.nextID {
		s.nextID = sh.ID
	}
	cp := sh
	s.sheets[sh.ID] = &cp
}

func (s *InMemoryStore) Print(_ context.Context, count int) ([]models.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]models.Sheet, 0, count)
	for i := 0; i < count; i++ {
		s.nextID++
		sh := &models.Sheet{ID: s.nextID, Status: models.StatusPrinted, CreatedAt: now, UpdatedAt: now}
		s.sheets[sh.ID] = sh
		out = append(out, *sh)
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.sheets[id]
	if !ok {
		return nil, fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
	}
	return s.withCollector(*sh), nil
}

func (s *InMemoryStore) withCollector(sh models.Sheet) *models.Sheet {
	if sh.CollectorID != nil {
		sh.CollectorName = s.circulators[*sh.CollectorID].FullName
	}
	return &sh
}

func (s *InMemoryStore) LockStatus(_ context.Context, id int64) (models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.sheets[id]
	if !ok {
		return "", fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
	}
	return sh.Status, nil
}

// update applies fn to sheet id when its status is from.
func (s *InMemoryStore) update(id int64, from models.Status, fn func(*models.Sheet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[id]
	if !ok {
		return fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
	}
	if sh.Status != from {
		return fmt.Errorf("sheet %d is %s: %w", id, sh.Status, sentinel.ErrInvalidState)
	}
	next := *sh
	if err := fn(&next); err != nil {
		return err
	}
	next.UpdatedAt = s.now()
	*sh = next
	return nil
}

func (s *InMemoryStore) Advance(_ context.Context, id int64, from, to models.Status) error {
	return s.update(id, from, func(sh *models.Sheet) error {
		sh.Status = to
		return nil
	})
}

func (s *InMemoryStore) Close(_ context.Context, id int64, c models.Closing) error {
	return s.update(id, models.StatusSummarizing, func(sh *models.Sheet) error {
		if _, ok := s.circulators[c.CollectorID]; !ok {
			return fmt.Errorf("circulator %d: %w", c.CollectorID, sentinel.ErrNotFound)
		}
		if _, ok := s.notaries[c.NotaryID]; !ok {
			return fmt.Errorf("notary %d: %w", c.NotaryID, sentinel.ErrNotFound)
		}
		collector, notary := c.CollectorID, c.NotaryID
		sh.CollectorID = &collector
		sh.NotaryID = &notary
		sh.NotarizedOn = c.NotarizedOn
		sh.Status = models.StatusClosed
		return nil
	})
}

func (s *InMemoryStore) AttachToBatch(_ context.Context, id, batchID int64) error {
	return s.update(id, models.StatusClosed, func(sh *models.Sheet) error {
		if sh.BatchID != nil {
			return fmt.Errorf("sheet %d already batched: %w", id, sentinel.ErrInvalidState)
		}
		b := batchID
		sh.BatchID = &b
		sh.Status = models.StatusPreShipment
		return nil
	})
}

func (s *InMemoryStore) CascadeStatus(_ context.Context, batchID int64, from []models.Status, to models.Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for _, sh := range s.sheets {
		if sh.BatchID == nil || *sh.BatchID != batchID || !containsStatus(from, sh.Status) {
			continue
		}
		sh.Status = to
		sh.UpdatedAt = now
		n++
	}
	return n, nil
}

func containsStatus(set []models.Status, st models.Status) bool {
	for _, s := range set {
		if s == st {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) ListByBatch(_ context.Context, batchID int64) ([]models.Sheet, error) {
	return s.list(func(sh *models.Sheet) bool { return sh.BatchID != nil && *sh.BatchID == batchID }), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]models.Sheet, error) {
	return s.list(func(sh *models.Sheet) bool { return sh.Status == status }), nil
}

func (s *InMemoryStore) list(keep func(*models.Sheet) bool) []models.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Sheet{}
	for _, sh := range s.sheets {
		if keep(sh) {
			out = append(out, *s.withCollector(*sh))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *InMemoryStore) StatusCounts(_ context.Context) (map[models.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[models.Status]int64{}
	for _, sh := range s.sheets {
		counts[sh.Status]++
	}
	return counts, nil
}

// catalogs mirrors the seeded status tables.
var catalogs = map[models.CatalogKind][]models.StatusDefinition{
	models.CatalogSheet: {
		{Status: "Printed", Description: "Printed but not yet with signing teams", Order: 1},
		{Status: "Signing", Description: "In field with teams", Order: 2},
		{Status: "Summarizing", Description: "Preparing summary sheet", Order: 3},
		{Status: "Closed", Description: "Summary signed and notarized, awaiting a batch", Order: 4},
		{Status: "Pre-shipment", Description: "Summary complete, awaiting shipment", Order: 5},
		{Status: "Shipped", Description: "In transit to state", Order: 6},
		{Status: "Verification", Description: "Delivered to state, awaiting confirmation that state has recorded signatures", Order: 7},
		{Status: "Complete", Description: "State has completed verification and recording process", Order: 8},
	},
	models.CatalogSignature: {
		{Status: "Recorded", Description: "Signature entered into database, still need to search", Order: 1},
		{Status: "Matched", Description: "Match found in internal datasystems", Order: 2},
		{Status: "No Match Found", Description: "Unable to find a match for this signature", Order: 3},
		{Status: "Validated", Description: "Confirmed by the state to meet signer criteria", Order: 4},
	},
	models.CatalogBatch: {
		{Status: "Building", Description: "Batch created and sheets are being added", Order: 1},
		{Status: "Pre-shipment", Description: "Batch closed, shipping label printed, awaiting shipment", Order: 2},
		{Status: "Shipped", Description: "In transit to the state", Order: 3},
		{Status: "Verification", Description: "Delivered to state and awaiting final verification results", Order: 4},
		{Status: "Complete", Description: "The state has completed the verification and recording process", Order: 5},
	},
}

func (s *InMemoryStore) Catalog(_ context.Context, kind models.CatalogKind) ([]models.StatusDefinition, error) {
	defs, ok := catalogs[kind]
	if !ok {
		return nil, fmt.Errorf("catalog %q: %w", kind, sentinel.ErrNotFound)
	}
	return append([]models.StatusDefinition(nil), defs...), nil
}

func (s *InMemoryStore) Circulators(_ context.Context) ([]models.Circulator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Circulator, 0, len(s.circulators))
	for _, c := range s.circulators {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) FindCirculator(_ context.Context, id int64) (*models.Circulator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.circulators[id]
	if !ok {
		return nil, fmt.Errorf("circulator %d: %w", id, sentinel.ErrNotFound)
	}
	return &c, nil
}

func (s *InMemoryStore) Notaries(_ context.Context) ([]models.Notary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notary, 0, len(s.notaries))
	for _, n := range s.notaries {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) FindNotary(_ context.Context, id int64) (*models.Notary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notaries[id]
	if !ok {
		return nil, fmt.Errorf("notary %d: %w", id, sentinel.ErrNotFound)
	}
	return &n, nil
}
