// Package memory is an in-process document store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// Store keeps documents in nested maps guarded by a single mutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Fields
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]models.Fields)}
}

// ListAll returns the documents of a collection ordered by key.
func (s *Store) ListAll(_ context.Context, collection string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.Document, 0, len(s.collections[collection]))
	for key, fields := range s.collections[collection] {
		docs = append(docs, models.Document{Key: key, Fields: fields})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func (s *Store) Get(_ context.Context, collection, key string) (models.Fields, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][key]
	return fields, ok, nil
}

func (s *Store) Put(_ context.Context, collection, key string, fields models.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(collection, key, fields)
	return nil
}

func (s *Store) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], key)
	return nil
}

// Adjust applies delta under the write lock.
func (s *Store) Adjust(_ context.Context, collection, key string, delta int) (models.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.collections[collection][key]
	next, result := models.ApplyDelta(current, ok, delta)
	switch {
	case result.Deleted:
		delete(s.collections[collection], key)
	case result.Quantity > 0:
		s.putLocked(collection, key, next)
	}
	return result, nil
}

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) putLocked(collection, key string, fields models.Fields) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]models.Fields)
		s.collections[collection] = docs
	}
	docs[key] = fields
}
