package constraint

import (
	"fmt"

	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// DefaultMinStock excludes out-of-stock items.
const DefaultMinStock = 1

// Options tune resolution for a single request.
type Options struct {
	IncludeOutOfStock bool
}

// Set is the resolved filter predicate for one request.
type Set struct {
	priceMin *float64
	priceMax *float64
	minStock int
	category string
}

// NewSet validates and creates a Set. Bounds must be non-negative and ordered.
func NewSet(priceMin, priceMax *float64, minStock int, category string) (Set, error) {
	if priceMin != nil && *priceMin < 0 {
		return Set{}, fmt.Errorf("price_min must be >= 0")
	}
	if priceMax != nil && *priceMax < 0 {
		return Set{}, fmt.Errorf("price_max must be >= 0")
	}
	if priceMin != nil && priceMax != nil && *priceMin > *priceMax {
		return Set{}, fmt.Errorf("price_min %.2f exceeds price_max %.2f", *priceMin, *priceMax)
	}
	if minStock < 0 {
		return Set{}, fmt.Errorf("min_stock must be >= 0")
	}
	return Set{
		priceMin: copyFloat(priceMin),
		priceMax: copyFloat(priceMax),
		minStock: minStock,
		category: catalog.JoinPath(catalog.SplitPath(category)),
	}, nil
}

// PriceMin returns the inclusive lower price bound.
func (s Set) PriceMin() (float64, bool) { return deref(s.priceMin) }

// PriceMax returns the inclusive upper price bound.
func (s Set) PriceMax() (float64, bool) { return deref(s.priceMax) }

// MinStock returns the minimum stock quantity an item must have.
func (s Set) MinStock() int { return s.minStock }

// Category returns the requested category path, empty for any.
func (s Set) Category() string { return s.category }

// WithMinStock returns a copy with a different stock threshold.
func (s Set) WithMinStock(n int) Set {
	if n < 0 {
		n = 0
	}
	s.minStock = n
	return s
}

// Matches evaluates the predicate against an item.
func (s Set) Matches(it catalog.Item) bool {
	if it.StockQuantity() < s.minStock {
		return false
	}
	if s.priceMin != nil && it.Price() < *s.priceMin {
		return false
	}
	if s.priceMax != nil && it.Price() > *s.priceMax {
		return false
	}
	return catalog.PathContains(it.Category(), s.category)
}

// String renders the predicate for logs and trace details.
func (s Set) String() string {
	lo, hi := "-inf", "+inf"
	if s.priceMin != nil {
		lo = fmt.Sprintf("%.2f", *s.priceMin)
	}
	if s.priceMax != nil {
		hi = fmt.Sprintf("%.2f", *s.priceMax)
	}
	return fmt.Sprintf("category=%q price=[%s,%s] min_stock=%d", s.category, lo, hi, s.minStock)
}

// Summary describes the inventory behind a category predicate.
type Summary struct {
	TotalMatching int
	InStockCount  int
	MinPrice      float64
	MaxPrice      float64
	MaxStock      int
}

// Accumulate folds one item into the summary.
func (s *Summary) Accumulate(it catalog.Item) {
	if s.TotalMatching == 0 || it.Price() < s.MinPrice {
		s.MinPrice = it.Price()
	}
	if s.TotalMatching == 0 || it.Price() > s.MaxPrice {
		s.MaxPrice = it.Price()
	}
	if it.StockQuantity() > s.MaxStock {
		s.MaxStock = it.StockQuantity()
	}
	if it.StockQuantity() > 0 {
		s.InStockCount++
	}
	s.TotalMatching++
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
