package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, task type or queue backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoHandler indicates no LLM handler could be resolved, including fallbacks.
	// Callers treat it as a failure signal rather than a crash.
	ErrNoHandler = errors.New("no LLM handler available")

	// Processing Errors.

	// ErrTransientProvider indicates a network, rate-limit, 5xx or timeout failure.
	// Operations failing with it may be retried a bounded number of times.
	ErrTransientProvider = errors.New("transient provider error")

	// ErrMalformedResponse indicates model output that could not be parsed.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrValidation indicates parsed output that violates structural constraints.
	ErrValidation = errors.New("validation failed")

	// ErrCriticalBatch indicates a provider-reported configuration error
	// affecting an entire batch. It is never retried.
	ErrCriticalBatch = errors.New("critical batch error")

	// ErrPersistence indicates a datastore write failure.
	// It always fails the owning task.
	ErrPersistence = errors.New("persistence error")
)
