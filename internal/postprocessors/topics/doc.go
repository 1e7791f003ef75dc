// Package topics turns sentence spans into model prompts and model output
// back into a gapless topic partition of the document.
//
// The flow is:
//
//	AddMarkers -> BuildTopicRangesPrompt -> (model) -> ParseRanges
//	  -> NormalizeRanges -> BuildGroups
//
// NormalizeRanges guarantees that every sentence lands in exactly one group,
// whatever the model returned.
package topics
