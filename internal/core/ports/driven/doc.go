// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document reads and derived tag/group writes
//   - TaskStore: Task and batch-state persistence
//   - RawResultStore: Raw batch output persistence
//   - WorkQueue: Shared queue with an atomic claim
//   - ConfigStore: Application configuration
//   - Normaliser: Plain text extraction for imported files
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Interactive model calls. Without it, segmentation falls back to one group.
//   - BatchProvider: Asynchronous batch API. Without it, tasks run interactively.
//   - PromptStore: Prompt overrides. Without it, built-in templates are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
