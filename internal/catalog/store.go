package catalog

import (
	"sync"

	"microteca/pkg/models"
)

// Outcome reports whether an update or delete touched a record.
type Outcome int

const (
	NotFound Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "not_found"
}

// Store is the in-memory record collection for the running process.
// Display order is insertion order.
type Store struct {
	mu      sync.RWMutex
	records []models.Microorganism
}

func NewStore() *Store {
	return &Store{}
}

// NewSeededStore returns a store holding seed, with ids assigned from 1.
func NewSeededStore(seed []models.Fields) *Store {
	s := NewStore()
	s.InsertMany(seed)
	return s
}

// nextIDLocked returns max(existing ids, default 0) + 1.
func (s *Store) nextIDLocked() int {
	maxID := 0
	for _, r := range s.records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

func (s *Store) Insert(f models.Fields) models.Microorganism {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.Microorganism{ID: s.nextIDLocked(), Fields: f}
	s.records = append(s.records, rec)
	return rec
}

// InsertMany appends all rows in input order, with ids continuing
// sequentially from the current maximum.
func (s *Store) InsertMany(rows []models.Fields) []models.Microorganism {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.nextIDLocked()
	out := make([]models.Microorganism, 0, len(rows))
	for i, f := range rows {
		out = append(out, models.Microorganism{ID: next + i, Fields: f})
	}
	s.records = append(s.records, out...)
	return out
}

// Update replaces every field but the id. A missing id is a no-op.
func (s *Store) Update(id int, f models.Fields) (models.Microorganism, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Fields = f
			return s.records[i], Applied
		}
	}
	return models.Microorganism{}, NotFound
}

// Delete removes the record with id. A missing id is a no-op.
func (s *Store) Delete(id int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return Applied
		}
	}
	return NotFound
}

func (s *Store) Get(id int) (models.Microorganism, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.Microorganism{}, false
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []models.Microorganism {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Microorganism, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
