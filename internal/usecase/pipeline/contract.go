package pipeline

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	tracing "github.com/kailas-cloud/vecrec/internal/usecase/trace"
)

// IntentExtractor turns a free-text query into an intent.
type IntentExtractor interface {
	Extract(ctx context.Context, query string) (intent.Intent, error)
}

// ContextEnricher adds weather, calendar and session context.
type ContextEnricher interface {
	Enrich(ctx context.Context, in intent.Intent, sessionID string) (enrichment.Context, error)
}

// ConstraintResolver derives hard filters and inventory statistics.
type ConstraintResolver interface {
	Resolve(
		ctx context.Context, in intent.Intent, opts constraint.Options,
	) (constraint.Set, constraint.Summary, error)
}

// Embedder vectorizes the search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever returns the top-N candidates for a query vector.
type Retriever interface {
	Retrieve(
		ctx context.Context, vector []float32, set constraint.Set, topN int,
	) ([]recommendation.Candidate, error)
}

// Ranker scores and orders candidates.
type Ranker interface {
	Rank(
		cands []recommendation.Candidate, in intent.Intent, stats constraint.Summary, topK int,
	) ([]recommendation.RankedResult, error)
}

// Synthesizer writes the response text.
type Synthesizer interface {
	Synthesize(
		ctx context.Context, ranked []recommendation.RankedResult, in intent.Intent, c enrichment.Context,
	) (string, error)
}

// TraceRecorder opens per-request trace handles.
type TraceRecorder interface {
	Start(requestID string) (*tracing.Handle, error)
}

// TraceSink receives finished trace records.
type TraceSink interface {
	Publish(ctx context.Context, rec domtrace.Record) error
}
