package intent

import (
	"fmt"
	"maps"
	"math"
	"strings"
)

// Urgency is how soon the shopper needs the product.
type Urgency string

// Urgency levels, most pressing first.
const (
	UrgencyUrgent   Urgency = "urgent"
	UrgencyHigh     Urgency = "high"
	UrgencyModerate Urgency = "moderate"
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
)

// ParseUrgency normalizes a free-form urgency label. Unknown labels are rejected.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "none", "standard":
		return UrgencyNormal, nil
	case "urgent", "immediate", "asap", "critical":
		return UrgencyUrgent, nil
	case "high":
		return UrgencyHigh, nil
	case "moderate", "medium":
		return UrgencyModerate, nil
	case "low":
		return UrgencyLow, nil
	default:
		return "", fmt.Errorf("unknown urgency %q", s)
	}
}

// Source identifies which extractor produced the intent.
type Source string

// Intent sources.
const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Filter slot names understood by ranking.
const (
	SlotBrand  = "brand"
	SlotColor  = "color"
	SlotSize   = "size"
	SlotGender = "gender"
)

// Slots lists the filter slots in a stable order.
var Slots = []string{SlotBrand, SlotColor, SlotSize, SlotGender}

// IsSlot reports whether name is a known filter slot.
func IsSlot(name string) bool {
	switch name {
	case SlotBrand, SlotColor, SlotSize, SlotGender:
		return true
	}
	return false
}

// Params is the raw field set an extractor fills before validation.
type Params struct {
	PrimaryCategory string
	Subcategory     string
	ProductType     string
	PriceMin        *float64
	PriceMax        *float64
	Urgency         Urgency
	TimelineDays    *int
	Filters         map[string]string
	UseCase         string
	Confidence      float64
	Source          Source
}

// Intent is the normalized shopping request. Immutable once built.
type Intent struct {
	primaryCategory string
	subcategory     string
	productType     string
	priceMin        *float64
	priceMax        *float64
	urgency         Urgency
	timelineDays    *int
	filters         map[string]string
	useCase         string
	confidence      float64
	source          Source
}

// New validates p and builds an Intent.
// Price normalization (clamping, ordering) belongs to constraint resolution,
// so only non-finite prices are rejected here.
func New(p Params) (Intent, error) {
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return Intent{}, fmt.Errorf("confidence %v out of range [0,1]", p.Confidence)
	}
	if p.PriceMin != nil && !isFinite(*p.PriceMin) {
		return Intent{}, fmt.Errorf("price_min is not a finite number")
	}
	if p.PriceMax != nil && !isFinite(*p.PriceMax) {
		return Intent{}, fmt.Errorf("price_max is not a finite number")
	}
	if p.TimelineDays != nil && *p.TimelineDays < 0 {
		return Intent{}, fmt.Errorf("timeline_days must be >= 0, got %d", *p.TimelineDays)
	}

	urgency := p.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}
	if _, err := ParseUrgency(string(urgency)); err != nil {
		return Intent{}, err
	}

	filters := make(map[string]string, len(p.Filters))
	for k, v := range p.Filters {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !IsSlot(k) {
			return Intent{}, fmt.Errorf("unknown filter slot %q", k)
		}
		filters[k] = v
	}

	source := p.Source
	if source == "" {
		source = SourceLLM
	}

	return Intent{
		primaryCategory: strings.TrimSpace(p.PrimaryCategory),
		subcategory:     strings.TrimSpace(p.Subcategory),
		productType:     strings.TrimSpace(p.ProductType),
		priceMin:        copyFloat(p.PriceMin),
		priceMax:        copyFloat(p.PriceMax),
		urgency:         urgency,
		timelineDays:    copyInt(p.TimelineDays),
		filters:         filters,
		useCase:         strings.TrimSpace(p.UseCase),
		confidence:      p.Confidence,
		source:          source,
	}, nil
}

// PrimaryCategory returns the top-level category, possibly empty.
func (i Intent) PrimaryCategory() string { return i.primaryCategory }

// Subcategory returns the subcategory, possibly empty.
func (i Intent) Subcategory() string { return i.subcategory }

// ProductType returns the product type, possibly empty.
func (i Intent) ProductType() string { return i.productType }

// PriceMin returns the requested lower price bound.
func (i Intent) PriceMin() (float64, bool) { return deref(i.priceMin) }

// PriceMax returns the requested upper price bound.
func (i Intent) PriceMax() (float64, bool) { return deref(i.priceMax) }

// Urgency returns the urgency level.
func (i Intent) Urgency() Urgency { return i.urgency }

// TimelineDays returns the delivery horizon in days.
func (i Intent) TimelineDays() (int, bool) {
	if i.timelineDays == nil {
		return 0, false
	}
	return *i.timelineDays, true
}

// Filters returns a copy of the slot filters.
func (i Intent) Filters() map[string]string { return maps.Clone(i.filters) }

// Filter returns a single slot filter.
func (i Intent) Filter(slot string) (string, bool) {
	v, ok := i.filters[slot]
	return v, ok
}

// UseCase returns the stated use case ("running", "work"), possibly empty.
func (i Intent) UseCase() string { return i.useCase }

// Confidence returns the extractor confidence in [0,1].
func (i Intent) Confidence() float64 { return i.confidence }

// Source returns which extractor produced the intent.
func (i Intent) Source() Source { return i.source }

// Params returns the field set, suitable for building a modified copy.
func (i Intent) Params() Params {
	return Params{
		PrimaryCategory: i.primaryCategory,
		Subcategory:     i.subcategory,
		ProductType:     i.productType,
		PriceMin:        copyFloat(i.priceMin),
		PriceMax:        copyFloat(i.priceMax),
		Urgency:         i.urgency,
		TimelineDays:    copyInt(i.timelineDays),
		Filters:         maps.Clone(i.filters),
		UseCase:         i.useCase,
		Confidence:      i.confidence,
		Source:          i.source,
	}
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
