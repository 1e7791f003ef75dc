package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure TagStore implements the interface.
var _ driven.TagStore = (*TagStore)(nil)

type tagKey struct {
	owner string
	tag   string
}

// TagStore is an in-memory implementation of driven.TagStore.
type TagStore struct {
	mu      sync.RWMutex
	classes map[tagKey]domain.TagClassification
}

// NewTagStore creates a new in-memory tag store.
func NewTagStore() *TagStore {
	return &TagStore{
		classes: make(map[tagKey]domain.TagClassification),
	}
}

// SaveTagClassifications upserts all classifications under one lock.
func (s *TagStore) SaveTagClassifications(_ context.Context, classes []domain.TagClassification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, c := range classes {
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		s.classes[tagKey{owner: c.Owner, tag: c.Tag}] = c
	}
	return nil
}

// GetTagClassifications returns an owner's classifications ordered by tag.
func (s *TagStore) GetTagClassifications(_ context.Context, owner string) ([]domain.TagClassification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TagClassification
	for k, c := range s.classes {
		if k.owner == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}
