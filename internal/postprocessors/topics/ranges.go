package topics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
	"github.com/custodia-labs/sercha-segmenter/internal/logger"
)

// MaxTopicLength is the longest topic path accepted by ValidateRanges, in bytes.
const MaxTopicLength = 200

// ParseRanges extracts topic ranges from model output.
//
// Each line has the form "<topic path>: <ranges>", where ranges is a
// comma-separated list of "a-b" or "a" tokens. Malformed tokens and lines
// are skipped. List bullets and "{N}" braces are tolerated.
func ParseRanges(output string) []domain.TopicRange {
	var out []domain.TopicRange

	for _, line := range strings.Split(output, "\n") {
		line = stripBullet(line)
		idx := strings.LastIndex(line, ":")
		if idx <= 0 {
			continue
		}

		topic := normalizeTopic(line[:idx])
		if topic == "" {
			continue
		}
		if !strings.Contains(topic, domain.TopicSeparator) {
			logger.Debug("topic %q is not hierarchical", topic)
		}

		for _, tok := range strings.Split(line[idx+1:], ",") {
			start, end, ok := parseRangeToken(tok)
			if !ok {
				continue
			}
			out = append(out, domain.TopicRange{Topic: topic, Start: start, End: end})
		}
	}

	return out
}

// ParseTopicList extracts a deduplicated topic list from model output,
// one topic path per line.
func ParseTopicList(output string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		topic := normalizeTopic(stripNumbering(stripBullet(line)))
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		out = append(out, topic)
	}

	return out
}

// ParseCategory extracts a tag category path from model output: the first
// topic path found, with any "Category:" style label removed. It returns
// domain.ErrMalformedResponse when the output holds none and
// domain.ErrValidation when the path is longer than MaxTopicLength.
func ParseCategory(output string) (string, error) {
	for _, topic := range ParseTopicList(output) {
		if idx := strings.LastIndex(topic, ":"); idx >= 0 {
			topic = normalizeTopic(topic[idx+1:])
		}
		if topic == "" {
			continue
		}
		if len(topic) > MaxTopicLength {
			return "", fmt.Errorf("%w: category longer than %d bytes", domain.ErrValidation, MaxTopicLength)
		}
		return topic, nil
	}
	return "", fmt.Errorf("%w: no category in output", domain.ErrMalformedResponse)
}

// NormalizeRanges turns arbitrary ranges into a sorted, contiguous,
// non-overlapping cover of [0, maxIndex].
//
// Ranges are clamped and swapped into order, sorted by (start, end) and swept
// once left to right. Gaps are filled with domain.NoTopic and overlaps are
// resolved in favour of the earlier range.
func NormalizeRanges(ranges []domain.TopicRange, maxIndex int) []domain.TopicRange {
	if maxIndex < 0 {
		return nil
	}

	clamped := make([]domain.TopicRange, 0, len(ranges))
	for _, r := range ranges {
		start, end := clamp(r.Start, maxIndex), clamp(r.End, maxIndex)
		if start > end {
			start, end = end, start
		}
		clamped = append(clamped, domain.TopicRange{Topic: r.Topic, Start: start, End: end})
	}

	sort.SliceStable(clamped, func(i, j int) bool {
		if clamped[i].Start != clamped[j].Start {
			return clamped[i].Start < clamped[j].Start
		}
		return clamped[i].End < clamped[j].End
	})

	out := make([]domain.TopicRange, 0, len(clamped)+1)
	cursor := 0
	for _, r := range clamped {
		if cursor > maxIndex {
			break
		}
		if r.End < cursor {
			continue
		}
		if r.Start > cursor {
			out = append(out, domain.TopicRange{Topic: domain.NoTopic, Start: cursor, End: r.Start - 1})
		}
		if r.Start < cursor {
			r.Start = cursor
		}
		out = append(out, r)
		cursor = r.End + 1
	}
	if cursor <= maxIndex {
		out = append(out, domain.TopicRange{Topic: domain.NoTopic, Start: cursor, End: maxIndex})
	}

	return out
}

// ValidateRanges checks the topic labels of parsed ranges for the strict
// path. Bounds are not checked: NormalizeRanges clamps and swaps them.
func ValidateRanges(ranges []domain.TopicRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: no ranges", domain.ErrValidation)
	}
	for _, r := range ranges {
		if len(r.Topic) > MaxTopicLength {
			return fmt.Errorf("%w: topic label longer than %d bytes: %.40q", domain.ErrValidation, MaxTopicLength, r.Topic)
		}
		for _, part := range strings.Split(r.Topic, domain.TopicSeparator) {
			if strings.TrimSpace(part) == "" {
				return fmt.Errorf("%w: empty level in topic %q", domain.ErrValidation, r.Topic)
			}
		}
	}
	return nil
}

func clamp(v, maxIndex int) int {
	if v < 0 {
		return 0
	}
	if v > maxIndex {
		return maxIndex
	}
	return v
}

func parseRangeToken(tok string) (int, int, bool) {
	tok = strings.Trim(strings.TrimSpace(tok), "{}[]() .")
	if tok == "" {
		return 0, 0, false
	}
	tok = strings.ReplaceAll(tok, "–", "-")

	a, b, isRange := strings.Cut(tok, "-")
	start, err := strconv.Atoi(strings.Trim(strings.TrimSpace(a), "{}"))
	if err != nil {
		return 0, 0, false
	}
	if !isRange {
		return start, start, true
	}
	end, err := strconv.Atoi(strings.Trim(strings.TrimSpace(b), "{}"))
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// normalizeTopic trims each level of a topic path and drops decoration.
func normalizeTopic(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "*`\"'")
	if s == "" {
		return ""
	}
	parts := strings.Split(s, domain.TopicSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, domain.TopicSeparator)
}

func stripBullet(line string) string {
	return strings.TrimLeft(strings.TrimSpace(line), "-*•· \t")
}

// stripNumbering removes "1." or "1)" list numbering.
func stripNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
