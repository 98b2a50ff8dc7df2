package history

import (
	"context"
	"sync"

	"call-quality-go/internal/types"
)

// MemoryStore is an in-process store for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.CallRecord
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec types.CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]types.CallRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
