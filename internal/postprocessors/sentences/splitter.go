// Package sentences splits plain text into ordered, numbered sentence spans.
package sentences

import (
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// Split returns the sentences of text numbered from 1.
//
// A sentence ends at '.', '!' or '?' followed by whitespace and an uppercase
// Latin or Cyrillic letter, or at one or more newlines. Spans are trimmed of
// surrounding whitespace and empty spans are dropped without consuming a number.
func Split(text string) []domain.Sentence {
	return split(text, 1)
}

func split(text string, minLength int) []domain.Sentence {
	var out []domain.Sentence

	emit := func(start, end int) {
		start, end = trimSpan(text, start, end)
		if end-start < minLength || end <= start {
			return
		}
		out = append(out, domain.Sentence{
			Number: len(out) + 1,
			Start:  start,
			End:    end,
		})
	}

	start := 0
	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == '\n':
			emit(start, i)
			for i < len(text) && text[i] == '\n' {
				i++
			}
			start = i
			continue
		case c == '.' || c == '!' || c == '?':
			if endsSentence(text, i+1) {
				emit(start, i+1)
				start = i + 1
			}
		}
		i++
	}
	emit(start, len(text))

	return out
}

// endsSentence reports whether text[pos:] is whitespace followed by an
// uppercase Latin or Cyrillic letter.
func endsSentence(text string, pos int) bool {
	j := pos
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(r) {
			break
		}
		j += size
	}
	if j == pos || j >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[j:])
	return unicode.IsUpper(r) && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Cyrillic, r))
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
