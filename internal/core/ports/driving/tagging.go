package driving

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// TaggingService extracts tags from text and documents.
type TaggingService interface {
	// Tag extracts tags from text without persisting anything.
	Tag(text string) (*domain.TagResult, error)

	// TagDocument tags a stored document and persists tags and lemmas.
	TagDocument(ctx context.Context, docID string) (*domain.TagResult, error)
}
