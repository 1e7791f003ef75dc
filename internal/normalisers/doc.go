// Package normalisers provides implementations of the Normaliser interface
// for the file formats documents are imported from. Each normaliser
// extracts plain text content from one family of file extensions.
package normalisers

import (
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-segmenter/internal/normalisers/html"
	"github.com/custodia-labs/sercha-segmenter/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-segmenter/internal/normalisers/plaintext"
)

// Defaults returns every built-in normaliser.
func Defaults() []driven.Normaliser {
	return []driven.Normaliser{html.New(), markdown.New(), plaintext.New()}
}
