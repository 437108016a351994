package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals an invalid catalog schema or record.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidIntent signals an intent that failed validation at the stage boundary.
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrInvalidWeights signals a ranking weight set that does not sum to 1.
	ErrInvalidWeights = errors.New("invalid ranking weights")

	// ErrInventoryUnavailable signals the catalog could not be queried.
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	// ErrDimensionMismatch signals a stored embedding whose length differs from the query.
	// It indicates catalog corruption and is never coerced.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmptyCandidateSet marks a legitimate empty result. It is reported, never returned to callers.
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	// ErrStageTimeout signals a stage exceeded its budget.
	ErrStageTimeout = errors.New("stage timeout")
	// ErrCancelled signals a caller-initiated cancellation.
	ErrCancelled = errors.New("cancelled")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted provider token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion failure or unusable model output.
	ErrLLMProviderError = errors.New("llm provider error")
)

// StageError is returned when the pipeline aborts. It names the failing stage
// and the trace id under which the run was recorded.
type StageError struct {
	Stage   string
	TraceID string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (trace %s): %v", e.Stage, e.TraceID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a stage abort error.
func NewStageError(stage, traceID string, err error) error {
	return &StageError{Stage: stage, TraceID: traceID, Err: err}
}

// DimensionMismatchError wraps ErrDimensionMismatch with the offending item.
type DimensionMismatchError struct {
	SKU      string
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: item %s has %d components, expected %d",
		ErrDimensionMismatch.Error(), e.SKU, e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }
