package catalog

import (
	"math"
	"slices"
	"testing"
)

func TestPathContains(t *testing.T) {
	tests := []struct {
		name      string
		item, req string
		want      bool
	}{
		{"prefix", "Clothing & Accessories > Footwear > Sneakers", "Clothing & Accessories", true},
		{"other department", "Home & Living > Furniture", "Clothing & Accessories", false},
		{"case insensitive", "Clothing & Accessories > Footwear", "clothing & accessories", true},
		{"inner run", "Clothing & Accessories > Footwear > Sneakers", "Footwear > Sneakers", true},
		{"non contiguous", "Clothing & Accessories > Footwear > Sneakers", "Clothing & Accessories > Sneakers", false},
		{"partial segment", "Clothing & Accessories > Footwear", "Cloth", false},
		{"empty request", "Home & Living", "", true},
		{"longer request", "Clothing", "Clothing > Footwear", false},
		{"extra spacing", "Clothing>Footwear", "Clothing  >  Footwear", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathContains(tt.item, tt.req); got != tt.want {
				t.Errorf("PathContains(%q, %q) = %v, want %v", tt.item, tt.req, got, tt.want)
			}
		})
	}
}

func TestSegmentRuns(t *testing.T) {
	got := SegmentRuns("A > B > C")
	want := []string{"a", "a > b", "a > b > c", "b", "b > c", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, run := range got {
		if !PathContains("A > B > C", run) {
			t.Errorf("run %q does not match its own path", run)
		}
	}
}

func TestNewItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    ItemParams
	}{
		{"missing sku", ItemParams{Price: 1}},
		{"negative price", ItemParams{SKU: "A", Price: -1}},
		{"negative stock", ItemParams{SKU: "A", StockQuantity: -3}},
		{"nan embedding", ItemParams{SKU: "A", Embedding: []float32{0.1, float32(math.NaN())}}},
		{"inf embedding", ItemParams{SKU: "A", Embedding: []float32{float32(math.Inf(1))}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewItem(tt.p); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewItem_AppendsSubcategory(t *testing.T) {
	it, err := NewItem(ItemParams{SKU: "S1", Category: "Clothing & Accessories", Subcategory: "Footwear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Category() != "Clothing & Accessories > Footwear" {
		t.Errorf("unexpected category %q", it.Category())
	}

	it, err = NewItem(ItemParams{SKU: "S2", Category: "Clothing & Accessories > Footwear", Subcategory: "footwear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Category() != "Clothing & Accessories > Footwear" {
		t.Errorf("subcategory duplicated: %q", it.Category())
	}
}

func TestNewItem_TagsNormalized(t *testing.T) {
	it, err := NewItem(ItemParams{SKU: "S1", Tags: []string{"Summer", " running", "summer", ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(it.Tags(), []string{"running", "summer"}) {
		t.Errorf("unexpected tags %v", it.Tags())
	}
}

func TestItem_Attribute(t *testing.T) {
	it, _ := NewItem(ItemParams{SKU: "S1", Brand: "Nike", Color: "Black", Size: "M", Gender: "Men"})
	if it.Attribute("brand") != "Nike" || it.Attribute("gender") != "Men" {
		t.Errorf("unexpected attributes")
	}
	if it.Attribute("material") != "" {
		t.Error("expected empty value for unknown slot")
	}
}
