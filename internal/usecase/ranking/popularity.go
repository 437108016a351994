package ranking

import "github.com/kailas-cloud/vecrec/internal/domain/catalog"

// PopularitySource scores how popular an item is, in [0,1].
// stockRef is the stock reference used for the current ranking.
type PopularitySource interface {
	Popularity(it catalog.Item, stockRef float64) float64
}

// StockProxy approximates popularity by stock depth, saturating at twice the
// stock reference. It overlaps with the stock_level signal.
type StockProxy struct{}

// Popularity implements PopularitySource.
func (StockProxy) Popularity(it catalog.Item, stockRef float64) float64 {
	return stockLevel(it.StockQuantity(), 2*stockRef)
}
