package domain

import "sort"

// NoTopic labels content the segmentation could not place in any topic.
const NoTopic = "no_topic"

// MainContentTopic is the single group used when segmentation degrades.
const MainContentTopic = "Main Content"

// TopicSeparator joins the levels of a hierarchical topic path.
const TopicSeparator = ">"

// Sentence is an addressable span of a document's text.
type Sentence struct {
	// Number is the 1-based, gapless sentence number.
	Number int `json:"number"`

	// Start is the byte offset of the first byte of the sentence.
	Start int `json:"start"`

	// End is the byte offset one past the last byte of the sentence.
	End int `json:"end"`

	// Read marks sentences the owner has already seen.
	Read bool `json:"read"`
}

// Len returns the sentence length in bytes.
func (s Sentence) Len() int {
	return s.End - s.Start
}

// TopicRange assigns an inclusive 0-based range of sentence indexes to a topic path.
type TopicRange struct {
	Topic string `json:"topic"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Size returns the number of sentences covered by the range.
func (r TopicRange) Size() int {
	return r.End - r.Start + 1
}

// Groups maps a topic path to its sorted, unique sentence numbers.
type Groups map[string][]int

// Topics returns the group names in sorted order.
func (g Groups) Topics() []string {
	topics := make([]string, 0, len(g))
	for topic := range g {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// SentenceCount returns the total number of sentence numbers across all groups.
func (g Groups) SentenceCount() int {
	n := 0
	for _, nums := range g {
		n += len(nums)
	}
	return n
}

// SingleGroup returns the degraded grouping: every sentence under MainContentTopic.
func SingleGroup(sentenceCount int) Groups {
	if sentenceCount <= 0 {
		return Groups{}
	}
	nums := make([]int, sentenceCount)
	for i := range nums {
		nums[i] = i + 1
	}
	return Groups{MainContentTopic: nums}
}
