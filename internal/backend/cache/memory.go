package cache

import (
	"context"
	"slices"
	"sync"
)

type MemoryBatchStore struct {
	mu    sync.RWMutex
	batch *Batch
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{}
}

func (s *MemoryBatchStore) SaveBatch(_ context.Context, batch Batch) error {
	batch.Photos = slices.Clone(batch.Photos)
	s.mu.Lock()
	s.batch = &batch
	s.mu.Unlock()
	return nil
}

func (s *MemoryBatchStore) LoadBatch(_ context.Context) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.batch == nil {
		return nil, ErrBatchNotFound
	}
	out := *s.batch
	out.Photos = slices.Clone(s.batch.Photos)
	return &out, nil
}

func (s *MemoryBatchStore) DeleteBatch(_ context.Context) error {
	s.mu.Lock()
	s.batch = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryBatchStore) Close() error {
	return nil
}
