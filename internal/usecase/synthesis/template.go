package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// NoResultsText is returned when nothing was ranked.
const NoResultsText = "Sorry, I couldn't find any matching products."

// Urgency notes, chosen by whether every listed item has stock.
const (
	urgentNote        = "All of these are in stock and ready to ship right away."
	urgentPartialNote = "Items marked (out of stock) may not ship right away."
)

// Template renders a fixed-format response. It never fails.
type Template struct{}

// NewTemplate creates a template synthesizer.
func NewTemplate() *Template { return &Template{} }

// Synthesize implements the synthesizer contract.
func (Template) Synthesize(
	_ context.Context, ranked []recommendation.RankedResult, in intent.Intent, _ enrichment.Context,
) (string, error) {
	return Render(ranked, in), nil
}

// Render is the template body.
func Render(ranked []recommendation.RankedResult, in intent.Intent) string {
	if len(ranked) == 0 {
		return NoResultsText
	}

	var b strings.Builder
	allInStock := true
	fmt.Fprintf(&b, "Here are my top %d recommendations for %s:\n", len(ranked), productLabel(in))
	for i, r := range ranked {
		brand := r.Item.Brand()
		if brand == "" {
			brand = "N/A"
		}
		fmt.Fprintf(&b, "\n%d. %s - $%.2f (%s)", i+1, r.Item.Title(), r.Item.Price(), brand)
		if r.Item.StockQuantity() <= 0 {
			b.WriteString(" (out of stock)")
			allInStock = false
		}
	}
	if in.Urgency() == intent.UrgencyUrgent {
		b.WriteString("\n\n")
		if allInStock {
			b.WriteString(urgentNote)
		} else {
			b.WriteString(urgentPartialNote)
		}
	}
	return b.String()
}

func productLabel(in intent.Intent) string {
	switch {
	case in.ProductType() != "":
		return in.ProductType()
	case in.Subcategory() != "":
		return in.Subcategory()
	case in.PrimaryCategory() != "":
		return in.PrimaryCategory()
	default:
		return "products"
	}
}
