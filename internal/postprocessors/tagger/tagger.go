// Package tagger extracts normalized tags from text using script-aware stemming.
package tagger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/russian"
	"golang.org/x/net/html"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// minStemLength is the shortest token that is stemmed at all, in runes.
const minStemLength = 4

// Tagger accumulates tags across calls to Process until Reset.
// A Tagger is not safe for concurrent use.
type Tagger struct {
	noise *regexp.Regexp

	lemmas []string
	words  map[string][]string
	seen   map[string]map[string]bool
}

// New creates a tagger. noisePattern matches characters replaced by spaces
// before tokenizing; an empty pattern uses domain.DefaultNoisePattern.
func New(noisePattern string) (*Tagger, error) {
	if noisePattern == "" {
		noisePattern = domain.DefaultNoisePattern
	}
	re, err := regexp.Compile(noisePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: noise pattern: %w", domain.ErrInvalidInput, err)
	}

	t := &Tagger{noise: re}
	t.Reset()
	return t, nil
}

// Clone returns an empty tagger sharing t's compiled noise pattern.
func (t *Tagger) Clone() *Tagger {
	c := &Tagger{noise: t.noise}
	c.Reset()
	return c
}

// Process tokenizes text and records the lemma of every token.
func (t *Tagger) Process(text string) {
	clean := t.noise.ReplaceAllString(StripHTML(text), " ")

	for _, tok := range strings.Fields(strings.ToLower(clean)) {
		tok = strings.Trim(tok, "-")
		if tok == "" {
			continue
		}

		lemma := Normalize(tok)
		t.lemmas = append(t.lemmas, lemma)

		if t.seen[lemma] == nil {
			t.seen[lemma] = make(map[string]bool)
		}
		if !t.seen[lemma][tok] {
			t.seen[lemma][tok] = true
			t.words[lemma] = append(t.words[lemma], tok)
		}
	}
}

// Tags returns the deduplicated tags in sorted order.
func (t *Tagger) Tags() []string {
	tags := make([]string, 0, len(t.words))
	for tag := range t.words {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Words returns, per tag, the surface forms observed in first-seen order.
func (t *Tagger) Words() map[string][]string {
	out := make(map[string][]string, len(t.words))
	for tag, forms := range t.words {
		out[tag] = append([]string(nil), forms...)
	}
	return out
}

// Lemmas returns the lemma of every processed token in input order.
func (t *Tagger) Lemmas() []string {
	return append([]string(nil), t.lemmas...)
}

// Reset clears accumulated state so the tagger can be reused.
func (t *Tagger) Reset() {
	t.lemmas = nil
	t.words = make(map[string][]string)
	t.seen = make(map[string]map[string]bool)
}

// Normalize reduces one lowercase token to its tag.
//
// Numeric tokens and tokens shorter than four runes pass through unchanged.
// Pure Cyrillic tokens use the Russian Snowball stemmer, pure Latin tokens the
// English (Porter2) one. Anything else loses a length-dependent suffix.
func Normalize(tok string) string {
	n := utf8.RuneCountInString(tok)
	switch {
	case n < minStemLength || isNumeric(tok):
		return tok
	case allRunes(tok, unicode.Cyrillic):
		return russian.Stem(tok, false)
	case allRunes(tok, unicode.Latin):
		return english.Stem(tok, false)
	default:
		return stripSuffix(tok, n)
	}
}

func stripSuffix(tok string, n int) string {
	var cut int
	switch {
	case n <= 5:
		cut = 1
	case n == 6:
		cut = 2
	default:
		cut = 3
	}
	r := []rune(tok)
	return string(r[:n-cut])
}

func isNumeric(tok string) bool {
	hasDigit := false
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '.' || r == ',' || r == '-':
		default:
			return false
		}
	}
	return hasDigit
}

func allRunes(tok string, table *unicode.RangeTable) bool {
	for _, r := range tok {
		if !unicode.Is(table, r) {
			return false
		}
	}
	return true
}

// StripHTML returns the text content of an HTML fragment with entities
// decoded. Script and style bodies are dropped.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	default:
		return false
	}
}
