package driven

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// DocumentStore provides access to documents supplied by the ingesting collaborator.
// The core only writes derived fields.
type DocumentStore interface {
	// SaveDocument stores or updates a whole document (used by ingestion and tests).
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SaveTags writes the derived tags, their surface words and the lemma
	// blob of a document.
	SaveTags(ctx context.Context, id string, tags []string, words map[string][]string, lemmas []byte) error

	// SaveGroups writes the derived topic groups of a document.
	SaveGroups(ctx context.Context, id string, groups domain.Groups) error
}

// TagStore persists per-owner tag classifications.
type TagStore interface {
	// SaveTagClassifications upserts categories for an owner's tags in one write.
	SaveTagClassifications(ctx context.Context, classes []domain.TagClassification) error

	// GetTagClassifications returns all classifications of an owner.
	GetTagClassifications(ctx context.Context, owner string) ([]domain.TagClassification, error)
}
