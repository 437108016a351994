package pipeline

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	catalogrepo "github.com/kailas-cloud/vecrec/internal/repository/catalog"
	constraintuc "github.com/kailas-cloud/vecrec/internal/usecase/constraint"
	intentuc "github.com/kailas-cloud/vecrec/internal/usecase/intent"
	rankinguc "github.com/kailas-cloud/vecrec/internal/usecase/ranking"
	retrievaluc "github.com/kailas-cloud/vecrec/internal/usecase/retrieval"
	synthesisuc "github.com/kailas-cloud/vecrec/internal/usecase/synthesis"
	tracing "github.com/kailas-cloud/vecrec/internal/usecase/trace"
)

const bundledCatalog = "../../../data/catalog.jsonl"

// wordsEmbedder hashes lower-cased words into a fixed number of buckets.
type wordsEmbedder struct{ dims int }

func (e wordsEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dims)]++
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func bundledOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	repo, err := catalogrepo.LoadFile(bundledCatalog)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	emb := wordsEmbedder{dims: 256}
	items := repo.Items()
	for i, it := range items {
		res, _ := emb.Embed(context.Background(), it.Text())
		items[i] = it.WithEmbedding(res.Embedding)
	}
	if err := repo.Upsert(context.Background(), items); err != nil {
		t.Fatal(err)
	}

	ranker, err := rankinguc.New(rankinguc.DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	rules := intentuc.NewRuleExtractor()
	o, err := New(Deps{
		Intent:           rules,
		IntentFallback:   rules,
		Constraints:      constraintuc.New(repo, constraintuc.DefaultPriceCap),
		Embedder:         emb,
		Retriever:        retrievaluc.New(repo, 2),
		Ranker:           ranker,
		ResponseFallback: synthesisuc.NewTemplate(),
		Recorder:         tracing.NewRecorder(),
		Sink:             &mockSink{},
	}, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestBundledCatalog_RuleQueries(t *testing.T) {
	o := bundledOrchestrator(t)

	tests := []struct {
		query    string
		dept     string
		maxPrice float64
		top      string
		excluded []string
	}{
		{
			query:    "cheap running shoes for a marathon next week",
			dept:     "Clothing & Accessories",
			maxPrice: 50,
			top:      "CLA-001",
			excluded: []string{"CLA-002", "CLA-003"}, // over budget, out of stock
		},
		{query: "shampoo for dry hair", dept: "Beauty & Personal Care", top: "BPC-001"},
		{query: "wooden toys for my nephew", dept: "Nursery & Kids", top: "NUR-001"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := o.Run(context.Background(), tt.query, "")
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if res.Trace.Outcome != domtrace.OutcomeDone {
				t.Fatalf("outcome %s, events %v", res.Trace.Outcome, statuses(res.Trace))
			}
			if res.Constraints.Category() != tt.dept {
				t.Errorf("category predicate = %q, want %q", res.Constraints.Category(), tt.dept)
			}
			if len(res.Ranked) == 0 {
				t.Fatal("no recommendations from the bundled catalog")
			}
			if got := res.Ranked[0].Item.SKU(); got != tt.top {
				t.Errorf("top = %s, want %s", got, tt.top)
			}
			for _, r := range res.Ranked {
				if !domcat.PathContains(r.Item.Category(), tt.dept) {
					t.Errorf("%s outside %s: %s", r.Item.SKU(), tt.dept, r.Item.Category())
				}
				if r.Item.StockQuantity() < 1 {
					t.Errorf("%s is out of stock", r.Item.SKU())
				}
				if tt.maxPrice > 0 && r.Item.Price() > tt.maxPrice {
					t.Errorf("%s over budget: %v", r.Item.SKU(), r.Item.Price())
				}
				for _, sku := range tt.excluded {
					if r.Item.SKU() == sku {
						t.Errorf("%s must be filtered out", sku)
					}
				}
			}
		})
	}
}
