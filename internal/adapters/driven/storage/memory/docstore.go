package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(*doc)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyDocument(doc)
	return &out, nil
}

// SaveTags writes the derived tags, words and lemmas of a document.
func (s *DocumentStore) SaveTags(
	_ context.Context,
	id string,
	tags []string,
	words map[string][]string,
	lemmas []byte,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Tags = append([]string(nil), tags...)
	doc.Words = copyWords(words)
	doc.Lemmas = append([]byte(nil), lemmas...)
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// SaveGroups writes the derived topic groups of a document.
func (s *DocumentStore) SaveGroups(_ context.Context, id string, groups domain.Groups) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Groups = copyGroups(groups)
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

func copyDocument(d domain.Document) domain.Document {
	d.Body = append([]byte(nil), d.Body...)
	d.Lemmas = append([]byte(nil), d.Lemmas...)
	d.Tags = append([]string(nil), d.Tags...)
	d.Words = copyWords(d.Words)
	d.Groups = copyGroups(d.Groups)
	return d
}

func copyWords(w map[string][]string) map[string][]string {
	if w == nil {
		return nil
	}
	out := make(map[string][]string, len(w))
	for tag, forms := range w {
		out[tag] = append([]string(nil), forms...)
	}
	return out
}

func copyGroups(g domain.Groups) domain.Groups {
	if g == nil {
		return nil
	}
	out := make(domain.Groups, len(g))
	for topic, nums := range g {
		out[topic] = append([]int(nil), nums...)
	}
	return out
}
