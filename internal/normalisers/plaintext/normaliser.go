// Package plaintext provides the fallback Normaliser for plain text files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const byteOrderMark = "\ufeff"

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{"", ".txt", ".text"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the file content with a leading BOM removed and
// line endings unified to "\n".
func (n *Normaliser) Normalise(_ context.Context, file *domain.ImportedFile) (*domain.NormalisedText, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	text := strings.TrimPrefix(string(file.Content), byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &domain.NormalisedText{
		Title:  TitleFromURI(file.URI),
		Text:   strings.TrimSpace(text),
		Format: "text",
	}, nil
}

// TitleFromURI derives a human-readable title from a file path.
func TitleFromURI(uri string) string {
	if uri == "" || uri == "-" {
		return ""
	}
	filename := filepath.Base(uri)

	// Remove the extension for a cleaner title
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
