package ranking

import (
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// Service blends similarity with price, stock, filter and popularity signals.
type Service struct {
	weights    Weights
	saturation float64
	popularity PopularitySource
}

// Option configures a Service.
type Option func(*Service)

// WithStockSaturation fixes the stock count treated as "fully stocked".
func WithStockSaturation(n float64) Option {
	return func(s *Service) { s.saturation = n }
}

// WithPopularity replaces the default stock-based popularity proxy.
func WithPopularity(p PopularitySource) Option {
	return func(s *Service) { s.popularity = p }
}

// New creates a ranker. Weights are validated once here.
func New(w Weights, opts ...Option) (*Service, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	s := &Service{weights: w, popularity: StockProxy{}}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Rank scores candidates and returns the topK best in total order.
// An empty candidate list yields an empty, non-nil slice.
func (s *Service) Rank(
	cands []recommendation.Candidate, in intent.Intent, stats constraint.Summary, topK int,
) ([]recommendation.RankedResult, error) {
	if len(cands) == 0 || topK <= 0 {
		return []recommendation.RankedResult{}, nil
	}

	ref := s.stockRef(cands, stats)
	w := s.weights
	out := make([]recommendation.RankedResult, len(cands))
	for i, c := range cands {
		b := recommendation.ScoreBreakdown{
			Similarity:  clamp01(c.Similarity),
			PriceFit:    priceFit(c.Item.Price(), in),
			StockLevel:  stockLevel(c.Item.StockQuantity(), ref),
			FilterMatch: filterMatch(c.Item, in),
			Popularity:  clamp01(s.popularity.Popularity(c.Item, ref)),
		}
		final := w.Similarity*b.Similarity +
			w.PriceFit*b.PriceFit +
			w.StockLevel*b.StockLevel +
			w.FilterMatch*b.FilterMatch +
			w.Popularity*b.Popularity
		out[i] = recommendation.RankedResult{Candidate: c, FinalScore: clamp01(final), Breakdown: b}
	}

	recommendation.Sort(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *Service) stockRef(cands []recommendation.Candidate, stats constraint.Summary) float64 {
	if s.saturation > 0 {
		return s.saturation
	}
	if stats.MaxStock > 0 {
		return float64(stats.MaxStock)
	}
	var m int
	for _, c := range cands {
		m = max(m, c.Item.StockQuantity())
	}
	return float64(m)
}
