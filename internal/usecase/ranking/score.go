package ranking

import (
	"math"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// clamp01 bounds v to [0,1]; NaN scores 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}

// priceFit is 1 inside the band and decays linearly with relative distance outside it.
func priceFit(price float64, in intent.Intent) float64 {
	if hi, ok := in.PriceMax(); ok && price > hi {
		if hi <= 0 {
			return 0
		}
		return max(1-(price-hi)/hi, 0)
	}
	if lo, ok := in.PriceMin(); ok && price < lo {
		if lo <= 0 {
			return 1
		}
		return max(1-(lo-price)/lo, 0)
	}
	return 1
}

func stockLevel(stock int, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return clamp01(float64(stock) / ref)
}

// filterMatch is the fraction of requested slot filters the item satisfies.
func filterMatch(it catalog.Item, in intent.Intent) float64 {
	filters := in.Filters()
	if len(filters) == 0 {
		return 1
	}
	matched := 0
	for slot, want := range filters {
		if strings.EqualFold(strings.TrimSpace(it.Attribute(slot)), want) {
			matched++
		}
	}
	return float64(matched) / float64(len(filters))
}
