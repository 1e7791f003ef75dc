package topics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/postprocessors/sentences"
)

func TestAddMarkers(t *testing.T) {
	text := "Sentence one. Sentence two.\nThird {line}."
	sents := sentences.Split(text)

	tagged, rows := AddMarkers(text, sents)

	assert.Equal(t, "{0} Sentence one.\n{1} Sentence two.\n{2} Third {line}.", tagged)
	assert.Equal(t, sents, rows)
}

func TestAddMarkers_PseudoRow(t *testing.T) {
	tagged, rows := AddMarkers("no sentences found", nil)

	assert.Equal(t, "{0} no sentences found", tagged)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Start)
	assert.Equal(t, len("no sentences found"), rows[0].End)
}

func TestAddMarkers_Blank(t *testing.T) {
	tagged, rows := AddMarkers("  \n ", nil)
	assert.Empty(t, tagged)
	assert.Empty(t, rows)
}

func TestRecoverSpans_ByteExact(t *testing.T) {
	texts := []string{
		"Sentence one. Sentence two.",
		"Привет мир. Как дела?\n\n{9} braces inside. Tail",
		"x\ny\nz",
		"Ends with marker-like text {1} here. And {2} more.",
	}

	for _, text := range texts {
		sents := sentences.Split(text)
		tagged, rows := AddMarkers(text, sents)

		got, err := RecoverSpans(tagged)
		require.NoError(t, err)
		require.Len(t, got, len(rows))
		for i, r := range rows {
			assert.Equal(t, text[r.Start:r.End], got[i])
		}
	}
}

func TestRecoverSpans_Malformed(t *testing.T) {
	_, err := RecoverSpans("{1} starts at one")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := RecoverSpans("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildTopicRangesPrompt(t *testing.T) {
	tagged := "{0} A.\n{1} B."

	p1 := BuildTopicRangesPrompt(tagged)
	p2 := BuildTopicRangesPrompt(tagged)

	assert.Equal(t, p1, p2)
	assert.True(t, strings.HasSuffix(p1, tagged))
	assert.Contains(t, p1, "<topic path>: <ranges>")
	assert.NotContains(t, p1, PlaceholderText)
}

func TestBuildMappingPrompt(t *testing.T) {
	p := BuildMappingPrompt([]string{"Tech>AI", "Sport"}, "{0} A.")

	assert.Contains(t, p, "Tech>AI\nSport")
	assert.True(t, strings.HasSuffix(p, "{0} A."))
}

func TestRender_NoReexpansion(t *testing.T) {
	p := BuildTopicsPrompt("literal {{text}} in content")
	assert.Contains(t, p, "literal {{text}} in content")
}

type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (s *stubPromptStore) Reload() {}

func TestPrompts_Override(t *testing.T) {
	store := &stubPromptStore{prompts: map[string]string{
		"topic_ranges": "custom: {{text}}",
	}}
	p := NewPrompts(store)

	assert.Equal(t, "custom: {0} A.", p.TopicRanges("{0} A."))
	assert.Equal(t, BuildTopicsPrompt("{0} A."), p.Topics("{0} A."))
	assert.Equal(t, BuildTagClassificationPrompt("golang"), p.TagClassification("golang"))
}

func TestPrompts_NilStore(t *testing.T) {
	p := NewPrompts(nil)
	assert.Equal(t, BuildMappingPrompt([]string{"A"}, "x"), p.Mapping([]string{"A"}, "x"))
}
