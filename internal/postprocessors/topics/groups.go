package topics

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-segmenter/internal/core/domain"
)

// BuildGroups maps normalized ranges to 1-based sentence numbers.
// A topic recurring in several ranges accumulates one sorted, unique list.
func BuildGroups(ranges []domain.TopicRange, sentenceCount int) domain.Groups {
	groups := make(domain.Groups)
	seen := make(map[string]map[int]bool)

	for _, r := range ranges {
		for idx := r.Start; idx <= r.End; idx++ {
			if idx < 0 || idx >= sentenceCount {
				continue
			}
			if seen[r.Topic] == nil {
				seen[r.Topic] = make(map[int]bool)
			}
			if seen[r.Topic][idx+1] {
				continue
			}
			seen[r.Topic][idx+1] = true
			groups[r.Topic] = append(groups[r.Topic], idx+1)
		}
	}

	for topic := range groups {
		sort.Ints(groups[topic])
	}
	return groups
}

// GroupsFromOutput parses, normalizes and groups model output for a document
// with sentenceCount sentences. It returns domain.ErrMalformedResponse when
// the output holds no usable range.
func GroupsFromOutput(output string, sentenceCount int) (domain.Groups, []domain.TopicRange, error) {
	if sentenceCount <= 0 {
		return domain.Groups{}, nil, nil
	}
	parsed := ParseRanges(output)
	if len(parsed) == 0 {
		return nil, nil, fmt.Errorf("%w: no usable topic ranges", domain.ErrMalformedResponse)
	}
	normalized := NormalizeRanges(parsed, sentenceCount-1)
	return BuildGroups(normalized, sentenceCount), parsed, nil
}

// GroupsOrFallback is the best-effort variant of GroupsFromOutput: any
// failure yields a single domain.MainContentTopic group.
func GroupsOrFallback(output string, sentenceCount int) domain.Groups {
	groups, _, err := GroupsFromOutput(output, sentenceCount)
	if err != nil {
		return domain.SingleGroup(sentenceCount)
	}
	return groups
}
