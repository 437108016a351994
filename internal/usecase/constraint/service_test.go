package constraint

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// --- Mocks ---

type mockInventory struct {
	summary constraint.Summary
	err     error
	got     constraint.Set
}

func (m *mockInventory) Stats(_ context.Context, set constraint.Set) (constraint.Summary, error) {
	m.got = set
	return m.summary, m.err
}

func f(v float64) *float64 { return &v }

func mustIntent(t *testing.T, p intent.Params) intent.Intent {
	t.Helper()
	in, err := intent.New(p)
	if err != nil {
		t.Fatalf("intent: %v", err)
	}
	return in
}

// --- Tests ---

func TestBuild_PricePassThrough(t *testing.T) {
	set, err := Build(mustIntent(t, intent.Params{PriceMin: f(10), PriceMax: f(50)}), constraint.Options{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lo, _ := set.PriceMin()
	hi, _ := set.PriceMax()
	if lo != 10 || hi != 50 {
		t.Errorf("expected [10,50], got [%v,%v]", lo, hi)
	}
	if set.MinStock() != 1 {
		t.Errorf("expected default min stock 1, got %d", set.MinStock())
	}
}

func TestBuild_AbsentBoundsStayUnbounded(t *testing.T) {
	set, err := Build(mustIntent(t, intent.Params{}), constraint.Options{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := set.PriceMin(); ok {
		t.Error("expected no lower bound")
	}
	if _, ok := set.PriceMax(); ok {
		t.Error("expected no upper bound")
	}
}

func TestBuild_NormalizesBounds(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi *float64
		wantLo float64
		wantHi float64
	}{
		{"negative min clamps", f(-5), f(20), 0, 20},
		{"inverted pair swaps", f(80), f(30), 30, 80},
		{"negative max clamps then swaps", f(10), f(-1), 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Build(mustIntent(t, intent.Params{PriceMin: tt.lo, PriceMax: tt.hi}), constraint.Options{}, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			lo, _ := set.PriceMin()
			hi, _ := set.PriceMax()
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("expected [%v,%v], got [%v,%v]", tt.wantLo, tt.wantHi, lo, hi)
			}
		})
	}
}

func TestBuild_PriceCap(t *testing.T) {
	set, _ := Build(mustIntent(t, intent.Params{PriceMin: f(100)}), constraint.Options{}, DefaultPriceCap)
	if hi, ok := set.PriceMax(); !ok || hi != DefaultPriceCap {
		t.Errorf("expected cap %v, got %v (%v)", DefaultPriceCap, hi, ok)
	}

	set, _ = Build(mustIntent(t, intent.Params{PriceMax: f(40)}), constraint.Options{}, DefaultPriceCap)
	if hi, _ := set.PriceMax(); hi != 40 {
		t.Errorf("expected explicit max to win over cap, got %v", hi)
	}
}

func TestBuild_IncludeOutOfStock(t *testing.T) {
	set, _ := Build(mustIntent(t, intent.Params{}), constraint.Options{IncludeOutOfStock: true}, 0)
	if set.MinStock() != 0 {
		t.Errorf("expected min stock 0, got %d", set.MinStock())
	}
}

func TestBuild_CategoryFromPrimaryOnly(t *testing.T) {
	set, _ := Build(mustIntent(t, intent.Params{
		PrimaryCategory: "Clothing & Accessories",
		Subcategory:     "Athletic Wear",
		ProductType:     "Running Shoes",
	}), constraint.Options{}, 0)
	if set.Category() != "Clothing & Accessories" {
		t.Errorf("unexpected category %q", set.Category())
	}

	sneaker, _ := catalog.NewItem(catalog.ItemParams{
		SKU: "S", Category: "Clothing & Accessories > Footwear > Sneakers", Price: 39, StockQuantity: 1,
	})
	sofa, _ := catalog.NewItem(catalog.ItemParams{
		SKU: "F", Category: "Home & Living > Furniture", Price: 10, StockQuantity: 1,
	})
	if !set.Matches(sneaker) {
		t.Error("sneaker filed under Footwear must survive a guessed Athletic Wear subcategory")
	}
	if set.Matches(sofa) {
		t.Error("other departments must be excluded")
	}
}

func TestResolve_StatsIgnoreStockThreshold(t *testing.T) {
	inv := &mockInventory{summary: constraint.Summary{TotalMatching: 4, InStockCount: 2, MaxStock: 9}}
	svc := New(inv, 0)

	set, sum, err := svc.Resolve(context.Background(), mustIntent(t, intent.Params{PrimaryCategory: "Clothing"}), constraint.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.MinStock() != 1 {
		t.Errorf("expected returned set to keep min stock 1, got %d", set.MinStock())
	}
	if inv.got.MinStock() != 0 {
		t.Errorf("expected stats over min stock 0, got %d", inv.got.MinStock())
	}
	if sum.MaxStock != 9 {
		t.Errorf("expected summary passed through, got %+v", sum)
	}
}

func TestResolve_InventoryUnavailable(t *testing.T) {
	svc := New(&mockInventory{err: errors.New("connection refused")}, 0)
	_, _, err := svc.Resolve(context.Background(), mustIntent(t, intent.Params{}), constraint.Options{})
	if !errors.Is(err, domain.ErrInventoryUnavailable) {
		t.Fatalf("expected ErrInventoryUnavailable, got %v", err)
	}
}
