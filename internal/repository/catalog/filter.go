package catalog

import (
	"github.com/kailas-cloud/vecrec/internal/db"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
)

// toDBFilter translates a constraint set into a backend pre-filter. The category
// predicate becomes an exact match on the indexed segment runs, which is
// equivalent to catalog.PathContains.
func toDBFilter(set constraint.Set) db.Filter {
	var f db.Filter
	if c := set.Category(); c != "" {
		f.Tags = append(f.Tags, db.TagFilter{
			Field:  fieldCategoryPath,
			Values: []string{domcat.NormalizePath(c)},
		})
	}

	lo, hasLo := set.PriceMin()
	hi, hasHi := set.PriceMax()
	if hasLo || hasHi {
		r := db.RangeFilter{Field: fieldPrice}
		if hasLo {
			r.Min = &lo
		}
		if hasHi {
			r.Max = &hi
		}
		f.Ranges = append(f.Ranges, r)
	}

	if set.MinStock() > 0 {
		minStock := float64(set.MinStock())
		f.Ranges = append(f.Ranges, db.RangeFilter{Field: fieldStock, Min: &minStock})
	}
	return f
}
