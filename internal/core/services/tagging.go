package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/tagger"
)

// Ensure TaggingService implements the interface.
var _ driving.TaggingService = (*TaggingService)(nil)

// TaggingService is the fast synchronous path: no model calls.
// Taggers are pooled and reset between uses.
type TaggingService struct {
	docs    driven.DocumentStore
	taggers sync.Pool
}

// NewTaggingService creates a tagging service. The noise pattern is
// compiled once here so a bad pattern fails at startup.
func NewTaggingService(docs driven.DocumentStore, cfg domain.TaggerSettings) (*TaggingService, error) {
	proto, err := tagger.New(cfg.NoisePattern)
	if err != nil {
		return nil, err
	}
	s := &TaggingService{docs: docs}
	s.taggers.New = func() any { return proto.Clone() }
	return s, nil
}

// Tag extracts tags from text.
func (s *TaggingService) Tag(text string) (*domain.TagResult, error) {
	return s.tag(text)
}

// TagDocument tags the title and body of a document and writes the tags,
// their surface words and the compressed lemma stream back.
func (s *TaggingService) TagDocument(ctx context.Context, docID string) (*domain.TagResult, error) {
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	text, err := doc.Text()
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}

	result, err := s.tag(doc.Title, text)
	if err != nil {
		return nil, err
	}

	lemmas, err := domain.CompressText(strings.Join(result.Lemmas, " "))
	if err != nil {
		return nil, err
	}
	if err := s.docs.SaveTags(ctx, docID, result.Tags, result.Words, lemmas); err != nil {
		return nil, fmt.Errorf("save tags for %s: %w", docID, err)
	}
	return result, nil
}

// tag runs a pooled tagger over texts; taggers are not safe for concurrent use.
func (s *TaggingService) tag(texts ...string) (*domain.TagResult, error) {
	t := s.taggers.Get().(*tagger.Tagger)
	defer func() {
		t.Reset()
		s.taggers.Put(t)
	}()

	for _, text := range texts {
		t.Process(text)
	}
	return &domain.TagResult{
		Tags:   t.Tags(),
		Words:  t.Words(),
		Lemmas: t.Lemmas(),
	}, nil
}
