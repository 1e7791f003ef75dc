package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService imports files as documents and reads them back.
type DocumentService struct {
	docs        driven.DocumentStore
	queue       driven.WorkQueue
	normalisers map[string]driven.Normaliser
}

// NewDocumentService creates a document service. For each extension the
// normaliser with the highest priority is used. queue may be nil when
// imports never enqueue tagging.
func NewDocumentService(
	docs driven.DocumentStore,
	queue driven.WorkQueue,
	normalisers ...driven.Normaliser,
) *DocumentService {
	byExt := make(map[string]driven.Normaliser)
	for _, n := range normalisers {
		for _, ext := range n.Extensions() {
			if cur, ok := byExt[ext]; !ok || n.Priority() > cur.Priority() {
				byExt[ext] = n
			}
		}
	}
	return &DocumentService{docs: docs, queue: queue, normalisers: byExt}
}

// Import normalises content by the extension of uri and stores it.
func (s *DocumentService) Import(
	ctx context.Context,
	owner, uri string,
	content []byte,
	opts driving.ImportOptions,
) (*domain.Document, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(uri))
	n, ok := s.normalisers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedType, ext)
	}

	norm, err := n.Normalise(ctx, &domain.ImportedFile{URI: uri, Content: content})
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", uri, err)
	}
	if strings.TrimSpace(norm.Text) == "" {
		return nil, fmt.Errorf("%w: %s has no text", domain.ErrInvalidInput, uri)
	}

	body, err := domain.CompressText(norm.Text)
	if err != nil {
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	doc := &domain.Document{
		ID:    id,
		Title: norm.Title,
		Body:  body,
		Owner: owner,
	}
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}

	if opts.EnqueueTagging && s.queue != nil {
		if _, err := s.queue.Enqueue(ctx, domain.QueueTagging, id); err != nil {
			return nil, fmt.Errorf("enqueue tagging for %s: %w", id, err)
		}
	}
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, id)
}
