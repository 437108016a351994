package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// --- Mocks ---

type fixedPopularity float64

func (f fixedPopularity) Popularity(catalog.Item, float64) float64 { return float64(f) }

func cand(t *testing.T, p catalog.ItemParams, sim float64) recommendation.Candidate {
	t.Helper()
	it, err := catalog.NewItem(p)
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	return recommendation.Candidate{Item: it, Similarity: sim}
}

func mustRanker(t *testing.T, opts ...Option) *Service {
	t.Helper()
	r, err := New(DefaultWeights(), opts...)
	if err != nil {
		t.Fatalf("ranker: %v", err)
	}
	return r
}

func f(v float64) *float64 { return &v }

// --- Tests ---

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}

	tests := []struct {
		name string
		w    Weights
	}{
		{"sum too low", Weights{Similarity: 0.5}},
		{"sum too high", Weights{Similarity: 0.6, PriceFit: 0.6}},
		{"negative", Weights{Similarity: 1.2, PriceFit: -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.w.Validate(); !errors.Is(err, domain.ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
			if _, err := New(tt.w); !errors.Is(err, domain.ErrInvalidWeights) {
				t.Errorf("expected New to reject weights, got %v", err)
			}
		})
	}
}

func TestPriceFit(t *testing.T) {
	band, _ := intent.New(intent.Params{PriceMin: f(20), PriceMax: f(50)})
	none, _ := intent.New(intent.Params{})
	zeroMax, _ := intent.New(intent.Params{PriceMax: f(0)})

	tests := []struct {
		name  string
		price float64
		in    intent.Intent
		want  float64
	}{
		{"inside band", 30, band, 1},
		{"no band", 999, none, 1},
		{"above max", 60, band, 0.8},
		{"far above max floors", 200, band, 0},
		{"below min", 15, band, 0.75},
		{"zero max", 5, zeroMax, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priceFit(tt.price, tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	it, _ := catalog.NewItem(catalog.ItemParams{SKU: "A", Brand: "Nike", Color: "Red"})
	in, _ := intent.New(intent.Params{Filters: map[string]string{"brand": "nike", "color": "blue"}})
	if got := filterMatch(it, in); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	none, _ := intent.New(intent.Params{})
	if got := filterMatch(it, none); got != 1 {
		t.Errorf("expected 1 with no filters, got %v", got)
	}
}

func TestRank_ScoresInRange(t *testing.T) {
	in, _ := intent.New(intent.Params{PriceMax: f(50), Filters: map[string]string{"brand": "Nike"}})
	cands := []recommendation.Candidate{
		cand(t, catalog.ItemParams{SKU: "A", Price: 10, StockQuantity: 100, Brand: "Nike"}, 1.5),
		cand(t, catalog.ItemParams{SKU: "B", Price: 500, StockQuantity: 0}, -0.9),
		cand(t, catalog.ItemParams{SKU: "C", Price: 50, StockQuantity: 5}, 0.3),
	}
	got, err := mustRanker(t).Rank(cands, in, constraint.Summary{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range got {
		if r.FinalScore < 0 || r.FinalScore > 1 {
			t.Errorf("%s: final score %v out of range", r.Item.SKU(), r.FinalScore)
		}
		b := r.Breakdown
		for _, v := range []float64{b.Similarity, b.PriceFit, b.StockLevel, b.FilterMatch, b.Popularity} {
			if v < 0 || v > 1 {
				t.Errorf("%s: sub-score %v out of range", r.Item.SKU(), v)
			}
		}
	}
}

func TestRank_NaNSimilarityScoresZero(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	cands := []recommendation.Candidate{
		cand(t, catalog.ItemParams{SKU: "A", Price: 10, StockQuantity: 5}, math.NaN()),
		cand(t, catalog.ItemParams{SKU: "B", Price: 10, StockQuantity: 5}, 0.4),
	}
	got, err := mustRanker(t).Rank(cands, in, constraint.Summary{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Item.SKU() != "B" {
		t.Errorf("expected B first, got %s", got[0].Item.SKU())
	}
	for _, r := range got {
		if math.IsNaN(r.FinalScore) || r.Breakdown.Similarity < 0 {
			t.Errorf("%s: non-finite score %v", r.Item.SKU(), r.FinalScore)
		}
	}
	if got[1].Breakdown.Similarity != 0 {
		t.Errorf("NaN similarity must score 0, got %v", got[1].Breakdown.Similarity)
	}
}

func TestRank_TieBreakBySKU(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	p := func(sku string) catalog.ItemParams {
		return catalog.ItemParams{SKU: sku, Price: 10, StockQuantity: 3}
	}
	cands := []recommendation.Candidate{cand(t, p("C"), 0.5), cand(t, p("A"), 0.5), cand(t, p("B"), 0.5)}
	got, _ := mustRanker(t).Rank(cands, in, constraint.Summary{}, 3)
	if got[0].Item.SKU() != "A" || got[1].Item.SKU() != "B" || got[2].Item.SKU() != "C" {
		t.Errorf("expected A,B,C got %s,%s,%s", got[0].Item.SKU(), got[1].Item.SKU(), got[2].Item.SKU())
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	got, err := mustRanker(t).Rank(nil, in, constraint.Summary{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestRank_TopK(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	cands := []recommendation.Candidate{
		cand(t, catalog.ItemParams{SKU: "A", Price: 1, StockQuantity: 1}, 0.1),
		cand(t, catalog.ItemParams{SKU: "B", Price: 1, StockQuantity: 1}, 0.9),
	}
	got, _ := mustRanker(t).Rank(cands, in, constraint.Summary{}, 1)
	if len(got) != 1 || got[0].Item.SKU() != "B" {
		t.Errorf("expected only B, got %+v", got)
	}
}

func TestRank_StockReference(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	cands := []recommendation.Candidate{cand(t, catalog.ItemParams{SKU: "A", Price: 1, StockQuantity: 5}, 0.5)}

	got, _ := mustRanker(t).Rank(cands, in, constraint.Summary{MaxStock: 20}, 1)
	if got[0].Breakdown.StockLevel != 0.25 {
		t.Errorf("expected summary reference, got %v", got[0].Breakdown.StockLevel)
	}
	if got[0].Breakdown.Popularity != 0.125 {
		t.Errorf("expected popularity saturating at 2x reference, got %v", got[0].Breakdown.Popularity)
	}

	got, _ = mustRanker(t, WithStockSaturation(10)).Rank(cands, in, constraint.Summary{MaxStock: 20}, 1)
	if got[0].Breakdown.StockLevel != 0.5 {
		t.Errorf("expected configured saturation to win, got %v", got[0].Breakdown.StockLevel)
	}

	got, _ = mustRanker(t).Rank(cands, in, constraint.Summary{}, 1)
	if got[0].Breakdown.StockLevel != 1 {
		t.Errorf("expected candidate max as reference, got %v", got[0].Breakdown.StockLevel)
	}
}

func TestRank_CustomPopularity(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	cands := []recommendation.Candidate{cand(t, catalog.ItemParams{SKU: "A", Price: 1, StockQuantity: 1}, 0)}
	got, _ := mustRanker(t, WithPopularity(fixedPopularity(0.7))).Rank(cands, in, constraint.Summary{}, 1)
	if got[0].Breakdown.Popularity != 0.7 {
		t.Errorf("expected custom popularity, got %v", got[0].Breakdown.Popularity)
	}
}

// Two items under a $50 cap: the in-band item must outrank the one outside it
// when everything else is equal.
func TestRank_PriceBandScenario(t *testing.T) {
	in, _ := intent.New(intent.Params{PriceMax: f(50)})
	cands := []recommendation.Candidate{
		cand(t, catalog.ItemParams{SKU: "B", Price: 120, StockQuantity: 10}, 0.8),
		cand(t, catalog.ItemParams{SKU: "A", Price: 39, StockQuantity: 10}, 0.8),
	}
	got, _ := mustRanker(t).Rank(cands, in, constraint.Summary{MaxStock: 10}, 2)
	if got[0].Item.SKU() != "A" {
		t.Fatalf("expected A first, got %s", got[0].Item.SKU())
	}
	if got[1].Breakdown.PriceFit != 0 {
		t.Errorf("expected B price fit 0, got %v", got[1].Breakdown.PriceFit)
	}
}
