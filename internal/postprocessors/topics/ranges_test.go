package topics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []domain.TopicRange
	}{
		{
			name:   "ranges and bare integers",
			output: "Tech>AI>GPT: 0-1\nSport>Football: 3",
			want: []domain.TopicRange{
				{Topic: "Tech>AI>GPT", Start: 0, End: 1},
				{Topic: "Sport>Football", Start: 3, End: 3},
			},
		},
		{
			name:   "comma separated list",
			output: "News: 0-2, 5, 7-8",
			want: []domain.TopicRange{
				{Topic: "News", Start: 0, End: 2},
				{Topic: "News", Start: 5, End: 5},
				{Topic: "News", Start: 7, End: 8},
			},
		},
		{
			name:   "malformed tokens skipped",
			output: "A>B: x-1, 2, 3-y, , 4-5",
			want: []domain.TopicRange{
				{Topic: "A>B", Start: 2, End: 2},
				{Topic: "A>B", Start: 4, End: 5},
			},
		},
		{
			name:   "bullets braces and spacing",
			output: "- **Tech > AI**: {0}-{2}\n* Sport: {3}",
			want: []domain.TopicRange{
				{Topic: "Tech>AI", Start: 0, End: 2},
				{Topic: "Sport", Start: 3, End: 3},
			},
		},
		{
			name:   "lines without colon ignored",
			output: "Here are the topics\n\nTech: 1\n",
			want: []domain.TopicRange{
				{Topic: "Tech", Start: 1, End: 1},
			},
		},
		{
			name:   "garbage",
			output: "I cannot help with that.",
			want:   nil,
		},
		{
			name:   "empty",
			output: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRanges(tt.output))
		})
	}
}

func TestNormalizeRanges_Example(t *testing.T) {
	parsed := ParseRanges("Tech>AI>GPT: 0-1\nSport>Football: 3")

	got := NormalizeRanges(parsed, 3)

	assert.Equal(t, []domain.TopicRange{
		{Topic: "Tech>AI>GPT", Start: 0, End: 1},
		{Topic: domain.NoTopic, Start: 2, End: 2},
		{Topic: "Sport>Football", Start: 3, End: 3},
	}, got)
}

func TestNormalizeRanges(t *testing.T) {
	tests := []struct {
		name     string
		ranges   []domain.TopicRange
		maxIndex int
		want     []domain.TopicRange
	}{
		{
			name:     "empty input fills everything",
			maxIndex: 2,
			want:     []domain.TopicRange{{Topic: domain.NoTopic, Start: 0, End: 2}},
		},
		{
			name:     "swap and clamp",
			ranges:   []domain.TopicRange{{Topic: "A", Start: 9, End: -4}},
			maxIndex: 3,
			want:     []domain.TopicRange{{Topic: "A", Start: 0, End: 3}},
		},
		{
			name: "overlap clipped to cursor",
			ranges: []domain.TopicRange{
				{Topic: "A", Start: 0, End: 2},
				{Topic: "B", Start: 1, End: 4},
			},
			maxIndex: 4,
			want: []domain.TopicRange{
				{Topic: "A", Start: 0, End: 2},
				{Topic: "B", Start: 3, End: 4},
			},
		},
		{
			name: "range behind cursor skipped",
			ranges: []domain.TopicRange{
				{Topic: "A", Start: 0, End: 5},
				{Topic: "B", Start: 2, End: 3},
			},
			maxIndex: 5,
			want: []domain.TopicRange{
				{Topic: "A", Start: 0, End: 5},
			},
		},
		{
			name: "unsorted with trailing gap",
			ranges: []domain.TopicRange{
				{Topic: "B", Start: 3, End: 3},
				{Topic: "A", Start: 1, End: 1},
			},
			maxIndex: 5,
			want: []domain.TopicRange{
				{Topic: domain.NoTopic, Start: 0, End: 0},
				{Topic: "A", Start: 1, End: 1},
				{Topic: domain.NoTopic, Start: 2, End: 2},
				{Topic: "B", Start: 3, End: 3},
				{Topic: domain.NoTopic, Start: 4, End: 5},
			},
		},
		{
			name:     "negative max index",
			ranges:   []domain.TopicRange{{Topic: "A", Start: 0, End: 0}},
			maxIndex: -1,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRanges(tt.ranges, tt.maxIndex))
		})
	}
}

func TestNormalizeRanges_Cover(t *testing.T) {
	inputs := []string{
		"A: 0-1\nB: 3",
		"A: 5-2, 9\nB: 0, 0, 1-100\nC: 4",
		"X: 7\nY: 3-3\nZ: 2-8",
		"garbage",
		"A: 2-2",
	}

	for _, output := range inputs {
		for maxIndex := 0; maxIndex < 12; maxIndex++ {
			got := NormalizeRanges(ParseRanges(output), maxIndex)
			require.NotEmpty(t, got)

			total := 0
			for i, r := range got {
				assert.LessOrEqual(t, r.Start, r.End)
				total += r.Size()
				if i > 0 {
					assert.Equal(t, got[i-1].End+1, r.Start, "ranges must be contiguous")
				}
			}
			assert.Equal(t, 0, got[0].Start)
			assert.Equal(t, maxIndex, got[len(got)-1].End)
			assert.Equal(t, maxIndex+1, total)
		}
	}
}

func TestParseTopicList(t *testing.T) {
	output := "1. Tech > AI\n- Sport>Football\n\n2) Tech>AI\n* `Politics`"

	assert.Equal(t, []string{"Tech>AI", "Sport>Football", "Politics"}, ParseTopicList(output))
	assert.Empty(t, ParseTopicList("  \n"))
}

func TestValidateRanges(t *testing.T) {
	ok := []domain.TopicRange{{Topic: "Tech>AI", Start: 0, End: 2}}
	assert.NoError(t, ValidateRanges(ok))

	// bounds are the normalizer's concern
	reversed := []domain.TopicRange{{Topic: "Tech", Start: 5, End: 2}, {Topic: "Sport", Start: -1, End: 0}}
	assert.NoError(t, ValidateRanges(reversed))

	tests := []struct {
		name   string
		ranges []domain.TopicRange
	}{
		{"empty", nil},
		{"too long", []domain.TopicRange{{Topic: strings.Repeat("a", MaxTopicLength+1), Start: 0, End: 0}}},
		{"empty level", []domain.TopicRange{{Topic: "Tech>>AI", Start: 0, End: 0}}},
		{"blank label", []domain.TopicRange{{Topic: " ", Start: 0, End: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRanges(tt.ranges), domain.ErrValidation)
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr error
	}{
		{"plain", "Science > Physics\n", "Science>Physics", nil},
		{"labelled", "Category: Sport>Football", "Sport>Football", nil},
		{"bulleted after blank", "\n\n- Tech>AI", "Tech>AI", nil},
		{"quoted", `"Finance"`, "Finance", nil},
		{"empty", "  \n ", "", domain.ErrMalformedResponse},
		{"too long", strings.Repeat("x", MaxTopicLength+1), "", domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.output)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
