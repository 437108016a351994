package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

const (
	defaultChunkSize   = 512
	defaultParallelism = 4
)

// Service retrieves the top-N candidates for a query embedding.
type Service struct {
	scanner     Scanner
	parallelism int
	chunkSize   int
}

// New creates a retriever. parallelism <= 0 uses the default.
func New(scanner Scanner, parallelism int) *Service {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Service{scanner: scanner, parallelism: parallelism, chunkSize: defaultChunkSize}
}

// Retrieve returns at most topN items satisfying set, ordered by similarity desc then SKU.
// Fewer matches are returned as-is.
func (s *Service) Retrieve(
	ctx context.Context, vector []float32, set constraint.Set, topN int,
) ([]recommendation.Candidate, error) {
	if topN <= 0 {
		return []recommendation.Candidate{}, nil
	}

	if knn, ok := s.scanner.(SimilaritySearcher); ok && !isZero(vector) {
		cands, err := knn.SimilarityQuery(ctx, vector, set, topN)
		if err != nil {
			return nil, fmt.Errorf("similarity query: %w", err)
		}
		return truncate(cands, topN), nil
	}

	items, err := s.scanner.FilteredScan(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("filtered scan: %w", err)
	}

	cands, err := s.score(ctx, vector, items)
	if err != nil {
		return nil, err
	}
	return truncate(cands, topN), nil
}

// score computes similarity for every item, chunked across goroutines.
func (s *Service) score(
	ctx context.Context, vector []float32, items []catalog.Item,
) ([]recommendation.Candidate, error) {
	out := make([]recommendation.Candidate, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for start := 0; start < len(items); start += s.chunkSize {
		end := min(start+s.chunkSize, len(items))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				emb := items[i].Embedding()
				if len(emb) != len(vector) {
					return &domain.DimensionMismatchError{
						SKU: items[i].SKU(), Expected: len(vector), Got: len(emb),
					}
				}
				out[i] = recommendation.Candidate{Item: items[i], Similarity: Cosine(vector, emb)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(cands []recommendation.Candidate, n int) []recommendation.Candidate {
	recommendation.SortCandidates(cands)
	if len(cands) > n {
		cands = cands[:n]
	}
	if cands == nil {
		cands = []recommendation.Candidate{}
	}
	return cands
}
