package topics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// AddMarkers prefixes each sentence with a 0-based "{N} " marker and joins
// the rows with newlines. Sentence bytes are copied unchanged.
//
// Non-blank text without sentences yields one pseudo-row spanning the whole
// text. The returned rows are the spans actually emitted.
func AddMarkers(text string, sents []domain.Sentence) (string, []domain.Sentence) {
	rows := sents
	if len(rows) == 0 {
		if strings.TrimSpace(text) == "" {
			return "", nil
		}
		rows = []domain.Sentence{{Number: 1, Start: 0, End: len(text)}}
	}

	var b strings.Builder
	for i, s := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(marker(i))
		b.WriteString(text[s.Start:s.End])
	}
	return b.String(), rows
}

// RecoverSpans returns the row contents of tagged text produced by AddMarkers.
func RecoverSpans(tagged string) ([]string, error) {
	if tagged == "" {
		return nil, nil
	}

	var out []string
	pos := 0
	for i := 0; pos < len(tagged); i++ {
		prefix := marker(i)
		if !strings.HasPrefix(tagged[pos:], prefix) {
			return nil, fmt.Errorf("%w: missing marker %q at byte %d", domain.ErrInvalidInput, prefix, pos)
		}
		pos += len(prefix)

		next := strings.Index(tagged[pos:], "\n"+marker(i+1))
		if next < 0 {
			out = append(out, tagged[pos:])
			break
		}
		out = append(out, tagged[pos:pos+next])
		pos += next + 1
	}
	return out, nil
}

func marker(i int) string {
	return "{" + strconv.Itoa(i) + "} "
}
