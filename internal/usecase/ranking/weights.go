package ranking

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

const weightTolerance = 1e-6

// Weights are the linear blend coefficients of the final score.
type Weights struct {
	Similarity  float64 `yaml:"similarity"`
	PriceFit    float64 `yaml:"price_fit"`
	FilterMatch float64 `yaml:"filter_match"`
	StockLevel  float64 `yaml:"stock_level"`
	Popularity  float64 `yaml:"popularity"`
}

// DefaultWeights returns the production blend.
func DefaultWeights() Weights {
	return Weights{
		Similarity:  0.45,
		PriceFit:    0.20,
		FilterMatch: 0.15,
		StockLevel:  0.10,
		Popularity:  0.10,
	}
}

// Validate rejects negative weights and sums away from 1. Weights are never renormalized.
func (w Weights) Validate() error {
	all := []float64{w.Similarity, w.PriceFit, w.FilterMatch, w.StockLevel, w.Popularity}
	var sum float64
	for _, v := range all {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", domain.ErrInvalidWeights, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", domain.ErrInvalidWeights, sum)
	}
	return nil
}
