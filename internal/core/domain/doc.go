// Package domain defines the core business entities for the segmenter.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document with its derived tags and groups
//   - Sentence: An addressable span within a document's text
//   - TopicRange / Groups: Segmentation output
//   - Task / BatchState: Persisted units of asynchronous LLM work
//   - QueueRecord: A claimable pointer to pending work
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
