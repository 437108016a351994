package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

const (
	keyPrefix = "vecrec:item:"
	indexName = "vecrec:items:idx"
	pageSize  = 500
)

var (
	itemFields = []string{
		fieldSKU, fieldTitle, fieldDescription, fieldCategory, fieldSubcategory,
		fieldBrand, fieldColor, fieldSize, fieldGender, fieldPrice, fieldStock, fieldTags,
	}
	statsFields = []string{fieldPrice, fieldStock}
)

// redisStore is the consumer interface over db.Store (ISP).
type redisStore interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	Ping(ctx context.Context) error
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// RedisRepo stores the catalog as hashes indexed by an FT index.
type RedisRepo struct {
	store redisStore
	dims  int
	hnsw  HNSWConfig
}

// NewRedis creates a Redis-backed catalog. dims is the embedding dimension of the index.
func NewRedis(s redisStore, dims int) *RedisRepo {
	return &RedisRepo{store: s, dims: dims, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *RedisRepo) WithHNSW(cfg HNSWConfig) *RedisRepo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureSchema creates the FT index if it does not exist yet.
func (r *RedisRepo) EnsureSchema(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag(fieldCategoryPath, listSeparator).
		Numeric(fieldPrice).
		Numeric(fieldStock).
		VectorHNSW(fieldEmbedding, r.dims, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).As("vector").
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes items in one pipelined round-trip.
func (r *RedisRepo) Upsert(ctx context.Context, items []domcat.Item) error {
	batch := make([]db.HashSetItem, len(items))
	for i, it := range items {
		if it.HasEmbedding() && len(it.Embedding()) != r.dims {
			return &domain.DimensionMismatchError{SKU: it.SKU(), Expected: r.dims, Got: len(it.Embedding())}
		}
		batch[i] = db.HashSetItem{Key: keyPrefix + it.SKU(), Fields: buildHashFields(it)}
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("hset items: %w", err)
	}
	return nil
}

// FilteredScan pages through every item satisfying set, embeddings included.
func (r *RedisRepo) FilteredScan(ctx context.Context, set constraint.Set) ([]domcat.Item, error) {
	fields := append(append([]string(nil), itemFields...), fieldEmbedding)
	var items []domcat.Item
	err := r.scan(ctx, set, fields, func(m map[string]string) error {
		it, err := parseHashFields(m)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Stats summarizes items satisfying set without loading embeddings.
func (r *RedisRepo) Stats(ctx context.Context, set constraint.Set) (constraint.Summary, error) {
	var s constraint.Summary
	err := r.scan(ctx, set, statsFields, func(m map[string]string) error {
		it, err := parseHashFields(m)
		if err != nil {
			return err
		}
		s.Accumulate(it)
		return nil
	})
	if err != nil {
		return constraint.Summary{}, err
	}
	return s, nil
}

// SimilarityQuery runs a filtered KNN inside the index.
func (r *RedisRepo) SimilarityQuery(
	ctx context.Context, vector []float32, set constraint.Set, limit int,
) ([]recommendation.Candidate, error) {
	if len(vector) != r.dims {
		return nil, &domain.DimensionMismatchError{SKU: "query", Expected: r.dims, Got: len(vector)}
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Filter:       toDBFilter(set),
		Vector:       vector,
		K:            limit,
		ReturnFields: itemFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	out := make([]recommendation.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if e.Fields[fieldSKU] == "" {
			e.Fields[fieldSKU] = strings.TrimPrefix(e.Key, keyPrefix)
		}
		it, err := parseHashFields(e.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, recommendation.Candidate{Item: it, Similarity: e.Score})
	}
	return out, nil
}

// Ping checks the backing store.
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *RedisRepo) scan(
	ctx context.Context, set constraint.Set, fields []string, fn func(map[string]string) error,
) error {
	f := toDBFilter(set)
	for offset := 0; ; offset += pageSize {
		sr, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    indexName,
			Filter:       f,
			Offset:       offset,
			Limit:        pageSize,
			ReturnFields: fields,
		})
		if err != nil {
			return fmt.Errorf("scan items: %w", err)
		}
		for _, e := range sr.Entries {
			if e.Fields[fieldSKU] == "" {
				e.Fields[fieldSKU] = strings.TrimPrefix(e.Key, keyPrefix)
			}
			if err := fn(e.Fields); err != nil {
				return err
			}
		}
		if len(sr.Entries) < pageSize || offset+pageSize >= sr.Total {
			return nil
		}
	}
}
