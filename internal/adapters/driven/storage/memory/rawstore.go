package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure RawResultStore implements the interface.
var _ driven.RawResultStore = (*RawResultStore)(nil)

// RawResultStore is an in-memory implementation of driven.RawResultStore.
type RawResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.RawBatchResult
}

// NewRawResultStore creates a new in-memory raw result store.
func NewRawResultStore() *RawResultStore {
	return &RawResultStore{
		results: make(map[string]domain.RawBatchResult),
	}
}

// SaveRawResult creates or replaces a raw result.
func (s *RawResultStore) SaveRawResult(_ context.Context, r *domain.RawBatchResult) error {
	if r == nil || r.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *r
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	s.results[r.ID] = saved
	return nil
}

// GetRawResult retrieves a raw result by ID.
func (s *RawResultStore) GetRawResult(_ context.Context, id string) (*domain.RawBatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// MarkRawProcessed flags a raw result as parsed.
func (s *RawResultStore) MarkRawProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Processed = true
	s.results[id] = r
	return nil
}

// DeleteRawResult removes a raw result.
func (s *RawResultStore) DeleteRawResult(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
	return nil
}

// Len returns the number of stored raw results.
func (s *RawResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
