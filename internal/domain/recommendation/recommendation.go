package recommendation

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Candidate is an item that passed hard filters, with its cosine similarity to the query.
type Candidate struct {
	Item       catalog.Item
	Similarity float64
}

// CompareCandidates orders by similarity desc, then SKU asc.
func CompareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	return cmp.Compare(a.Item.SKU(), b.Item.SKU())
}

// SortCandidates sorts in place using CompareCandidates.
func SortCandidates(cs []Candidate) {
	slices.SortFunc(cs, CompareCandidates)
}

// ScoreBreakdown holds the normalized sub-scores behind a final score.
type ScoreBreakdown struct {
	Similarity  float64
	PriceFit    float64
	StockLevel  float64
	FilterMatch float64
	Popularity  float64
}

// RankedResult is a scored candidate.
type RankedResult struct {
	Candidate
	FinalScore float64
	Breakdown  ScoreBreakdown
}

// Compare is the total order over ranked results:
// final score desc, similarity desc, SKU asc.
func Compare(a, b RankedResult) int {
	if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
		return c
	}
	return CompareCandidates(a.Candidate, b.Candidate)
}

// Sort sorts ranked results in place using Compare.
func Sort(rs []RankedResult) {
	slices.SortFunc(rs, Compare)
}
