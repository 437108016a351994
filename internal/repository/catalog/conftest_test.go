package catalog

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/db/qdrant"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
)

// mockRedisStore implements redisStore for tests.
type mockRedisStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExists   bool
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn  func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

func (m *mockRedisStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockRedisStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockRedisStore) IndexExists(context.Context, string) (bool, error) {
	return m.indexExists, nil
}

func (m *mockRedisStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockRedisStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockRedisStore) Ping(context.Context) error { return nil }

// mockQdrantStore implements qdrantStore for tests.
type mockQdrantStore struct {
	hits       []qdrant.Hit
	lastFilter db.Filter
	upserted   []qdrant.Point
	err        error
}

func (m *mockQdrantStore) EnsureCollection(context.Context, int) error { return m.err }

func (m *mockQdrantStore) Upsert(_ context.Context, points []qdrant.Point) error {
	m.upserted = points
	return m.err
}

func (m *mockQdrantStore) Scroll(_ context.Context, f db.Filter, _ int, _ bool) ([]qdrant.Hit, error) {
	m.lastFilter = f
	return m.hits, m.err
}

func (m *mockQdrantStore) Search(_ context.Context, _ []float32, f db.Filter, _ int) ([]qdrant.Hit, error) {
	m.lastFilter = f
	return m.hits, m.err
}

func (m *mockQdrantStore) Ping(context.Context) error { return m.err }

func floatPtr(f float64) *float64 { return &f }

func mustItem(t *testing.T, p domcat.ItemParams) domcat.Item {
	t.Helper()
	it, err := domcat.NewItem(p)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	return it
}

func mustSet(t *testing.T, lo, hi *float64, minStock int, category string) constraint.Set {
	t.Helper()
	s, err := constraint.NewSet(lo, hi, minStock, category)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	return s
}
