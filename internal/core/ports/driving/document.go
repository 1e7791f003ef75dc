package driving

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// ImportOptions controls DocumentService.Import.
type ImportOptions struct {
	// ID overrides the generated document ID.
	ID string

	// EnqueueTagging pushes the new document onto the tagging queue.
	EnqueueTagging bool
}

// DocumentService imports and inspects documents.
type DocumentService interface {
	// Import normalises a file and stores it as a document of owner.
	Import(ctx context.Context, owner, uri string, content []byte, opts ImportOptions) (*domain.Document, error)

	// Get retrieves a document with its derived tags and groups.
	Get(ctx context.Context, id string) (*domain.Document, error)
}
