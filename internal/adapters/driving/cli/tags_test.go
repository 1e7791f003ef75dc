package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

func tagFixture() *mockTaggingService {
	return &mockTaggingService{result: &domain.TagResult{
		Tags:  []string{"connect", "match"},
		Words: map[string][]string{"connect": {"connections", "connection"}, "match": {"match"}},
	}}
}

func TestTagsCmd_Use(t *testing.T) {
	assert.Equal(t, "tags [file]", tagsCmd.Use)
	assert.Equal(t, "Extract tags from a text", tagsCmd.Short)
}

func TestTagsCmd_NotConfigured(t *testing.T) {
	setupServices(t, Services{})

	_, err := execute(t, "", "tags", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tagging service not configured")
}

func TestTagsCmd_FromStdin(t *testing.T) {
	tagger := tagFixture()
	setupServices(t, Services{TaggingService: tagger})

	out, err := execute(t, "Connections and a match", "tags", "-")
	require.NoError(t, err)

	assert.Equal(t, "Connections and a match", tagger.lastText)
	assert.Contains(t, out, "2 tags")
	assert.Contains(t, out, "  connect\n")
	assert.Contains(t, out, "  match\n")
}

func TestTagsCmd_Words(t *testing.T) {
	setupServices(t, Services{TaggingService: tagFixture()})

	out, err := execute(t, "x", "tags", "--words", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "connect: connections, connection")
}

func TestTagsCmd_Document(t *testing.T) {
	tagger := tagFixture()
	setupServices(t, Services{TaggingService: tagger})

	_, err := execute(t, "", "tags", "--doc", "doc-7")
	require.NoError(t, err)
	assert.Equal(t, "doc-7", tagger.lastDoc)
}

func TestTagsCmd_NoTags(t *testing.T) {
	setupServices(t, Services{TaggingService: &mockTaggingService{result: &domain.TagResult{}}})

	out, err := execute(t, "...", "tags", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "No tags found.")
}

func TestTagsCmd_Error(t *testing.T) {
	setupServices(t, Services{TaggingService: &mockTaggingService{err: errors.New("boom")}})

	_, err := execute(t, "", "tags", "--doc", "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tagging failed: boom")
}
