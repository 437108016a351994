package retrieval

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// Scanner returns every catalog item satisfying a predicate.
type Scanner interface {
	FilteredScan(ctx context.Context, set constraint.Set) ([]catalog.Item, error)
}

// SimilaritySearcher is implemented by stores that can run a filtered KNN natively.
type SimilaritySearcher interface {
	SimilarityQuery(
		ctx context.Context, vector []float32, set constraint.Set, limit int,
	) ([]recommendation.Candidate, error)
}
