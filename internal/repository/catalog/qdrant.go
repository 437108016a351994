package catalog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/db/qdrant"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// qdrantStore is the consumer interface over the Qdrant store (ISP).
type qdrantStore interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, points []qdrant.Point) error
	Scroll(ctx context.Context, f db.Filter, pageSize int, withVectors bool) ([]qdrant.Hit, error)
	Search(ctx context.Context, vector []float32, f db.Filter, limit int) ([]qdrant.Hit, error)
	Ping(ctx context.Context) error
}

// QdrantRepo stores the catalog as points in a Qdrant collection.
type QdrantRepo struct {
	store qdrantStore
	dims  int
}

// NewQdrant creates a Qdrant-backed catalog.
func NewQdrant(s qdrantStore, dims int) *QdrantRepo {
	return &QdrantRepo{store: s, dims: dims}
}

// EnsureSchema creates the collection if it is missing.
func (r *QdrantRepo) EnsureSchema(ctx context.Context) error {
	if err := r.store.EnsureCollection(ctx, r.dims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

// Upsert writes items as points keyed by SKU.
func (r *QdrantRepo) Upsert(ctx context.Context, items []domcat.Item) error {
	points := make([]qdrant.Point, len(items))
	for i, it := range items {
		if len(it.Embedding()) != r.dims {
			return &domain.DimensionMismatchError{SKU: it.SKU(), Expected: r.dims, Got: len(it.Embedding())}
		}
		points[i] = qdrant.Point{Key: it.SKU(), Vector: it.Embedding(), Payload: buildPayload(it)}
	}
	if err := r.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}

// FilteredScan scrolls every point satisfying set, vectors included.
func (r *QdrantRepo) FilteredScan(ctx context.Context, set constraint.Set) ([]domcat.Item, error) {
	hits, err := r.store.Scroll(ctx, toDBFilter(set), pageSize, true)
	if err != nil {
		return nil, fmt.Errorf("scroll items: %w", err)
	}
	items := make([]domcat.Item, 0, len(hits))
	for _, h := range hits {
		it, err := parsePayload(h.Payload, h.Vector)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Stats summarizes points satisfying set without loading vectors.
func (r *QdrantRepo) Stats(ctx context.Context, set constraint.Set) (constraint.Summary, error) {
	hits, err := r.store.Scroll(ctx, toDBFilter(set), pageSize, false)
	if err != nil {
		return constraint.Summary{}, fmt.Errorf("scroll stats: %w", err)
	}
	var s constraint.Summary
	for _, h := range hits {
		it, err := parsePayload(h.Payload, nil)
		if err != nil {
			return constraint.Summary{}, err
		}
		s.Accumulate(it)
	}
	return s, nil
}

// SimilarityQuery runs a filtered cosine search inside Qdrant.
func (r *QdrantRepo) SimilarityQuery(
	ctx context.Context, vector []float32, set constraint.Set, limit int,
) ([]recommendation.Candidate, error) {
	if len(vector) != r.dims {
		return nil, &domain.DimensionMismatchError{SKU: "query", Expected: r.dims, Got: len(vector)}
	}
	hits, err := r.store.Search(ctx, vector, toDBFilter(set), limit)
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	out := make([]recommendation.Candidate, 0, len(hits))
	for _, h := range hits {
		it, err := parsePayload(h.Payload, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, recommendation.Candidate{Item: it, Similarity: h.Score})
	}
	return out, nil
}

// Ping checks the backing store.
func (r *QdrantRepo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
