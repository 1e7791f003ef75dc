package driven

import (
	"context"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// Normaliser extracts plain text from an imported file format.
type Normaliser interface {
	// Extensions lists the lower-case file extensions handled, dot included.
	// The empty string matches files without an extension.
	Extensions() []string

	// Priority orders normalisers claiming the same extension. Higher wins.
	Priority() int

	// Normalise extracts a title and plain text.
	// Returns domain.ErrInvalidInput for a nil file.
	Normalise(ctx context.Context, file *domain.ImportedFile) (*domain.NormalisedText, error)
}
