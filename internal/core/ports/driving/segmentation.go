package driving

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// SegmentationService splits documents into topic groups.
type SegmentationService interface {
	// Segment is the best-effort path. It never fails: any structural
	// failure degrades to a single domain.MainContentTopic group.
	Segment(ctx context.Context, text string, settings domain.UserSettings) (domain.Groups, []domain.Sentence)

	// SegmentStrict validates model output and regenerates a bounded number
	// of times before returning a typed error.
	SegmentStrict(ctx context.Context, text string, settings domain.UserSettings) (domain.Groups, []domain.Sentence, error)

	// SegmentDocument segments a stored document and persists its groups.
	SegmentDocument(ctx context.Context, docID string, settings domain.UserSettings, strict bool) (domain.Groups, error)
}
