package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ItemParams is the raw attribute set of a catalog item.
type ItemParams struct {
	SKU           string
	Title         string
	Description   string
	Category      string
	Subcategory   string
	Brand         string
	Color         string
	Size          string
	Gender        string
	Price         float64
	StockQuantity int
	Tags          []string
	Embedding     []float32
}

// Item is a single catalog entry.
type Item struct {
	sku           string
	title         string
	description   string
	category      string
	subcategory   string
	brand         string
	color         string
	size          string
	gender        string
	price         float64
	stockQuantity int
	tags          []string
	embedding     []float32
}

// NewItem validates and creates an Item. The category path is extended with the
// subcategory when the path does not already contain it.
func NewItem(p ItemParams) (Item, error) {
	sku := strings.TrimSpace(p.SKU)
	if sku == "" {
		return Item{}, fmt.Errorf("sku is required")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return Item{}, fmt.Errorf("item %s: price must be a non-negative number", sku)
	}
	if p.StockQuantity < 0 {
		return Item{}, fmt.Errorf("item %s: stock_quantity must be >= 0", sku)
	}
	for j, x := range p.Embedding {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return Item{}, fmt.Errorf("item %s: embedding component %d is not finite", sku, j)
		}
	}

	category := JoinPath(SplitPath(p.Category))
	sub := strings.TrimSpace(p.Subcategory)
	if sub != "" && !PathContains(category, sub) {
		category = JoinPath(append(SplitPath(category), sub))
	}

	return Item{
		sku:           sku,
		title:         strings.TrimSpace(p.Title),
		description:   strings.TrimSpace(p.Description),
		category:      category,
		subcategory:   sub,
		brand:         strings.TrimSpace(p.Brand),
		color:         strings.TrimSpace(p.Color),
		size:          strings.TrimSpace(p.Size),
		gender:        strings.TrimSpace(p.Gender),
		price:         p.Price,
		stockQuantity: p.StockQuantity,
		tags:          normalizeTags(p.Tags),
		embedding:     slices.Clone(p.Embedding),
	}, nil
}

// SKU returns the unique item identifier.
func (i Item) SKU() string { return i.sku }

// Title returns the display title.
func (i Item) Title() string { return i.title }

// Description returns the long description.
func (i Item) Description() string { return i.description }

// Category returns the full hierarchical category path.
func (i Item) Category() string { return i.category }

// Subcategory returns the subcategory label as ingested.
func (i Item) Subcategory() string { return i.subcategory }

// Brand returns the brand, possibly empty.
func (i Item) Brand() string { return i.brand }

// Color returns the color, possibly empty.
func (i Item) Color() string { return i.color }

// Size returns the size label, possibly empty.
func (i Item) Size() string { return i.size }

// Gender returns the target gender, possibly empty.
func (i Item) Gender() string { return i.gender }

// Price returns the unit price.
func (i Item) Price() float64 { return i.price }

// StockQuantity returns units in stock.
func (i Item) StockQuantity() int { return i.stockQuantity }

// Tags returns the sorted, de-duplicated tag set.
func (i Item) Tags() []string { return slices.Clone(i.tags) }

// Embedding returns the stored embedding. Callers must not modify it.
func (i Item) Embedding() []float32 { return i.embedding }

// HasEmbedding reports whether the item carries an embedding.
func (i Item) HasEmbedding() bool { return len(i.embedding) > 0 }

// Attribute returns the value of a filter slot (brand, color, size, gender).
func (i Item) Attribute(slot string) string {
	switch slot {
	case "brand":
		return i.brand
	case "color":
		return i.color
	case "size":
		return i.size
	case "gender":
		return i.gender
	}
	return ""
}

// WithEmbedding returns a copy of the item carrying vec.
func (i Item) WithEmbedding(vec []float32) Item {
	i.embedding = slices.Clone(vec)
	return i
}

// Text is the representation embedded at ingestion time.
func (i Item) Text() string {
	parts := []string{
		"Product: " + i.title,
		"Description: " + i.description,
		"Category: " + i.category,
		"Subcategory: " + i.subcategory,
		"Brand: " + i.brand,
		"Color: " + i.color,
		"Tags: " + strings.Join(i.tags, ", "),
	}
	return strings.Join(parts, " | ")
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
