package mocks

import (
	"context"
	"fmt"
	"sync"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

// MemoryStore is an in-memory core.KeyValueStore for tests. It applies the
// same error contract as the production adapter: missing documents raise
// errors.ErrDocumentNotFound and duplicate inserts raise
// errors.ErrDocumentExists.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Seed loads a document without going through Insert, for test fixtures.
func (s *MemoryStore) Seed(id string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[id] = append([]byte(nil), payload...)
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// Get returns the raw document payload
func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, scopekitErrors.ErrDocumentNotFound)
	}
	return append([]byte(nil), payload...), nil
}

// Insert stores a new document and fails if the ID is taken
func (s *MemoryStore) Insert(_ context.Context, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; ok {
		return fmt.Errorf("insert %q: %w", id, scopekitErrors.ErrDocumentExists)
	}
	s.docs[id] = append([]byte(nil), payload...)
	return nil
}

// Replace overwrites an existing document and fails if it is missing
func (s *MemoryStore) Replace(_ context.Context, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("replace %q: %w", id, scopekitErrors.ErrDocumentNotFound)
	}
	s.docs[id] = append([]byte(nil), payload...)
	return nil
}

// Upsert stores a document regardless of whether it already exists
func (s *MemoryStore) Upsert(_ context.Context, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[id] = append([]byte(nil), payload...)
	return nil
}

// Remove deletes a document and fails if it is missing
func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("remove %q: %w", id, scopekitErrors.ErrDocumentNotFound)
	}
	delete(s.docs, id)
	return nil
}

// Exists reports whether a document with the ID is present
func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.docs[id]
	return ok, nil
}
