package domain

// TagResult is the output of tag extraction for one text.
type TagResult struct {
	// Tags is the sorted, deduplicated tag list.
	Tags []string

	// Words maps each tag to its surface forms in first-seen order.
	Words map[string][]string

	// Lemmas is the lemma of every token in input order.
	Lemmas []string
}
