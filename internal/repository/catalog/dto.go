package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/db/redis"
	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Stored field names, shared by the Redis hash layout and the Qdrant payload.
const (
	fieldSKU          = "sku"
	fieldTitle        = "title"
	fieldDescription  = "description"
	fieldCategory     = "category"
	fieldSubcategory  = "subcategory"
	fieldBrand        = "brand"
	fieldColor        = "color"
	fieldSize         = "size"
	fieldGender       = "gender"
	fieldPrice        = "price"
	fieldStock        = "stock"
	fieldTags         = "tags"
	fieldCategoryPath = "category_path"
	fieldEmbedding    = "embedding"
)

const listSeparator = "|"

// Record is the JSON-lines catalog format read by the memory backend and the ingest tool.
type Record struct {
	SKU           string    `json:"sku"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Color         string    `json:"color,omitempty"`
	Size          string    `json:"size,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Tags          []string  `json:"tags,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// ToItem validates the record into a domain item.
func (r Record) ToItem() (domcat.Item, error) {
	it, err := domcat.NewItem(domcat.ItemParams{
		SKU:           r.SKU,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Brand:         r.Brand,
		Color:         r.Color,
		Size:          r.Size,
		Gender:        r.Gender,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		Tags:          r.Tags,
		Embedding:     r.Embedding,
	})
	if err != nil {
		return domcat.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	return it, nil
}

// RecordFromItem is the inverse of ToItem.
func RecordFromItem(it domcat.Item) Record {
	return Record{
		SKU:           it.SKU(),
		Title:         it.Title(),
		Description:   it.Description(),
		Category:      it.Category(),
		Subcategory:   it.Subcategory(),
		Brand:         it.Brand(),
		Color:         it.Color(),
		Size:          it.Size(),
		Gender:        it.Gender(),
		Price:         it.Price(),
		StockQuantity: it.StockQuantity(),
		Tags:          it.Tags(),
		Embedding:     it.Embedding(),
	}
}

// buildHashFields flattens an item into a hash for HSET.
func buildHashFields(it domcat.Item) map[string]string {
	m := map[string]string{
		fieldSKU:          it.SKU(),
		fieldTitle:        it.Title(),
		fieldDescription:  it.Description(),
		fieldCategory:     it.Category(),
		fieldSubcategory:  it.Subcategory(),
		fieldBrand:        it.Brand(),
		fieldColor:        it.Color(),
		fieldSize:         it.Size(),
		fieldGender:       it.Gender(),
		fieldPrice:        strconv.FormatFloat(it.Price(), 'f', -1, 64),
		fieldStock:        strconv.Itoa(it.StockQuantity()),
		fieldTags:         strings.Join(it.Tags(), listSeparator),
		fieldCategoryPath: strings.Join(domcat.SegmentRuns(it.Category()), listSeparator),
	}
	if it.HasEmbedding() {
		m[fieldEmbedding] = redis.VectorToBytes(it.Embedding())
	}
	return m
}

// parseHashFields rebuilds an item from a hash returned by FT.SEARCH.
func parseHashFields(m map[string]string) (domcat.Item, error) {
	price, err := strconv.ParseFloat(m[fieldPrice], 64)
	if err != nil {
		return domcat.Item{}, fmt.Errorf("%w: item %s: price %q", domain.ErrInvalidSchema, m[fieldSKU], m[fieldPrice])
	}
	stock, err := strconv.Atoi(m[fieldStock])
	if err != nil {
		return domcat.Item{}, fmt.Errorf("%w: item %s: stock %q", domain.ErrInvalidSchema, m[fieldSKU], m[fieldStock])
	}

	var vec []float32
	if blob, ok := m[fieldEmbedding]; ok && blob != "" {
		vec, err = redis.BytesToVector(blob)
		if err != nil {
			return domcat.Item{}, fmt.Errorf("%w: item %s: %w", domain.ErrDimensionMismatch, m[fieldSKU], err)
		}
	}

	var tags []string
	if t := m[fieldTags]; t != "" {
		tags = strings.Split(t, listSeparator)
	}

	return Record{
		SKU:           m[fieldSKU],
		Title:         m[fieldTitle],
		Description:   m[fieldDescription],
		Category:      m[fieldCategory],
		Subcategory:   m[fieldSubcategory],
		Brand:         m[fieldBrand],
		Color:         m[fieldColor],
		Size:          m[fieldSize],
		Gender:        m[fieldGender],
		Price:         price,
		StockQuantity: stock,
		Tags:          tags,
		Embedding:     vec,
	}.ToItem()
}

// buildPayload converts an item into a Qdrant payload.
func buildPayload(it domcat.Item) map[string]any {
	return map[string]any{
		fieldSKU:          it.SKU(),
		fieldTitle:        it.Title(),
		fieldDescription:  it.Description(),
		fieldCategory:     it.Category(),
		fieldSubcategory:  it.Subcategory(),
		fieldBrand:        it.Brand(),
		fieldColor:        it.Color(),
		fieldSize:         it.Size(),
		fieldGender:       it.Gender(),
		fieldPrice:        it.Price(),
		fieldStock:        it.StockQuantity(),
		fieldTags:         it.Tags(),
		fieldCategoryPath: domcat.SegmentRuns(it.Category()),
	}
}

// parsePayload rebuilds an item from a Qdrant payload and optional vector.
func parsePayload(p map[string]any, vec []float32) (domcat.Item, error) {
	str := func(k string) string {
		s, _ := p[k].(string)
		return s
	}
	var tags []string
	if t, ok := p[fieldTags].([]string); ok {
		tags = t
	}
	price, ok := number(p[fieldPrice])
	if !ok {
		return domcat.Item{}, fmt.Errorf("%w: item %s: missing price", domain.ErrInvalidSchema, str(fieldSKU))
	}
	stock, ok := number(p[fieldStock])
	if !ok {
		return domcat.Item{}, fmt.Errorf("%w: item %s: missing stock", domain.ErrInvalidSchema, str(fieldSKU))
	}

	return Record{
		SKU:           str(fieldSKU),
		Title:         str(fieldTitle),
		Description:   str(fieldDescription),
		Category:      str(fieldCategory),
		Subcategory:   str(fieldSubcategory),
		Brand:         str(fieldBrand),
		Color:         str(fieldColor),
		Size:          str(fieldSize),
		Gender:        str(fieldGender),
		Price:         price,
		StockQuantity: int(stock),
		Tags:          tags,
		Embedding:     vec,
	}.ToItem()
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
