package domain

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"time"
)

// Document represents an ingested document.
// Documents are owned by the ingesting collaborator; the core only
// attaches derived tags, lemmas and groups.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Body is the gzip-compressed text content.
	Body []byte

	// Owner is the user the document belongs to.
	Owner string

	// Feed and Category are pass-through metadata from the provider.
	Feed     string
	Category string

	// Tags is the derived, deduplicated tag list.
	Tags []string

	// Words maps each tag to the surface forms it was derived from.
	Words map[string][]string

	// Lemmas is the compressed, space-joined lemma stream of the text.
	Lemmas []byte

	// Groups is the derived topic segmentation, if any.
	Groups Groups

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Text returns the decompressed document text.
// An empty body yields an empty string.
func (d *Document) Text() (string, error) {
	return DecompressText(d.Body)
}

// CompressText gzips text for storage in Document.Body or Document.Lemmas.
func CompressText(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("compress text: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress text: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressText reverses CompressText.
func DecompressText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decompress text: %w", ErrInvalidInput, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: decompress text: %w", ErrInvalidInput, err)
	}
	return string(out), nil
}

// ImportedFile is a raw file handed to a normaliser.
type ImportedFile struct {
	// URI is the path or location the content was read from.
	URI string

	// Content is the raw file content.
	Content []byte
}

// NormalisedText is the plain text extracted from an ImportedFile.
type NormalisedText struct {
	Title  string
	Text   string
	Format string
}
