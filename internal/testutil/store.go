package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/rollbook/internal/ledger"
)

// MemoryStore is an in-memory ledger.Store for tests.
//
// Set SaveErr or LoadErr to make the next calls fail.
type MemoryStore struct {
	mu      sync.Mutex
	records []ledger.Record
	saves   int
	loads   int

	SaveErr error
	LoadErr error
}

// NewMemoryStore creates a store pre-filled with records.
func NewMemoryStore(records ...ledger.Record) *MemoryStore {
	return &MemoryStore{records: slices.Clone(records)}
}

// Load returns a copy of the saved records.
func (s *MemoryStore) Load(ctx context.Context) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := slices.Clone(s.records)
	if out == nil {
		out = []ledger.Record{}
	}
	return out, nil
}

// Save replaces the saved records with a copy of records.
func (s *MemoryStore) Save(ctx context.Context, records []ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.records = slices.Clone(records)
	return nil
}

// Saved returns a copy of the last successfully saved snapshot.
func (s *MemoryStore) Saved() []ledger.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Saves returns how many times Save was called, failed calls included.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Loads returns how many times Load was called.
func (s *MemoryStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}
