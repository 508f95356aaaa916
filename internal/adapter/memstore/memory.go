package memstore

import (
	"fmt"
	"sync"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// MemoryStore keeps batches and spaces for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]domain.Batch
	spaces  map[string]storedSpace
}

type storedSpace struct {
	hash  string
	space port.EmbeddingSpace
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]domain.Batch),
		spaces:  make(map[string]storedSpace),
	}
}

func (s *MemoryStore) GetBatch(name string) (domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[name]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", name, port.ErrNotFound)
	}
	return append(domain.Batch(nil), batch...), nil
}

func (s *MemoryStore) PutBatch(name string, batch domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[name] = append(domain.Batch(nil), batch...)
	return nil
}

func (s *MemoryStore) DeleteBatch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, name)
	return nil
}

func (s *MemoryStore) GetSpace(name, configHash string) (port.EmbeddingSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.spaces[name]
	if !ok || stored.hash != configHash {
		return nil, fmt.Errorf("space %s: %w", name, port.ErrNotFound)
	}
	return stored.space, nil
}

func (s *MemoryStore) PutSpace(name, configHash string, space port.EmbeddingSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[name] = storedSpace{hash: configHash, space: space}
	return nil
}

func (s *MemoryStore) DeleteSpace(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.spaces, name)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
