package constraint

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// DefaultPriceCap bounds requests that carry no upper price.
const DefaultPriceCap = 5000

// Service turns an intent into hard filters and an inventory summary.
type Service struct {
	inventory Inventory
	priceCap  float64
}

// New creates a constraint resolver. A priceCap <= 0 disables the cap.
func New(inventory Inventory, priceCap float64) *Service {
	return &Service{inventory: inventory, priceCap: priceCap}
}

// Resolve builds the constraint set and summarizes the inventory behind it.
// The summary covers every item matching category and price, stock aside,
// so InStockCount and MaxStock describe the whole band.
func (s *Service) Resolve(
	ctx context.Context, in intent.Intent, opts constraint.Options,
) (constraint.Set, constraint.Summary, error) {
	set, err := Build(in, opts, s.priceCap)
	if err != nil {
		return constraint.Set{}, constraint.Summary{}, err
	}

	sum, err := s.inventory.Stats(ctx, set.WithMinStock(0))
	if err != nil {
		return constraint.Set{}, constraint.Summary{}, fmt.Errorf("%w: %w", domain.ErrInventoryUnavailable, err)
	}
	return set, sum, nil
}

// Build is the pure part of resolution.
func Build(in intent.Intent, opts constraint.Options, priceCap float64) (constraint.Set, error) {
	var lo, hi *float64
	if v, ok := in.PriceMin(); ok {
		v = max(v, 0)
		lo = &v
	}
	if v, ok := in.PriceMax(); ok {
		v = max(v, 0)
		hi = &v
	} else if priceCap > 0 {
		c := priceCap
		hi = &c
	}
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}

	minStock := constraint.DefaultMinStock
	if opts.IncludeOutOfStock {
		minStock = 0
	}

	set, err := constraint.NewSet(lo, hi, minStock, categoryPath(in))
	if err != nil {
		return constraint.Set{}, fmt.Errorf("%w: %w", domain.ErrInvalidIntent, err)
	}
	return set, nil
}

// categoryPath is the hard category predicate. Only the primary category
// narrows; the extractor's subcategory is a guess over a fixed taxonomy and
// feeds the search text instead.
func categoryPath(in intent.Intent) string {
	return in.PrimaryCategory()
}
