package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

const systemPrompt = `You are a product intent extraction agent for an e-commerce catalog.
Analyze the shopper's request and answer with a single JSON object, no prose.

Available categories and subcategories:
%s

Fields:
  product_category     one of the categories above, or null
  product_subcategory  one of that category's subcategories, or null
  product_type         the specific product being asked for
  budget_term          cheap, budget, affordable, mid-range, moderate, premium, expensive, luxury, or null
  price_min            explicit lower price in dollars, or null
  price_max            explicit upper price in dollars, or null
  urgency_term         the words expressing urgency ("asap", "next week", "no rush"), or null
  use_case             what the product is for ("marathon", "work"), or null
  gender, size, color, brand   filter values, or null
  confidence           0.0 to 1.0`

// llmIntent is the JSON document the model is asked to produce.
type llmIntent struct {
	Category    *string  `json:"product_category"`
	Subcategory *string  `json:"product_subcategory"`
	ProductType *string  `json:"product_type"`
	BudgetTerm  *string  `json:"budget_term"`
	PriceMin    *float64 `json:"price_min"`
	PriceMax    *float64 `json:"price_max"`
	UrgencyTerm *string  `json:"urgency_term"`
	UseCase     *string  `json:"use_case"`
	Gender      *string  `json:"gender"`
	Size        *string  `json:"size"`
	Color       *string  `json:"color"`
	Brand       *string  `json:"brand"`
	Confidence  *float64 `json:"confidence"`
}

// LLMExtractor asks a chat model for a structured intent.
type LLMExtractor struct {
	chat   ChatClient
	prompt string
}

// NewLLMExtractor creates an LLM-backed extractor.
func NewLLMExtractor(chat ChatClient) *LLMExtractor {
	return &LLMExtractor{chat: chat, prompt: fmt.Sprintf(systemPrompt, describeTaxonomy())}
}

// Extract implements the intent extractor contract. Malformed model output is an error.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (intent.Intent, error) {
	raw, err := e.chat.CompleteJSON(ctx, e.prompt, query)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("complete intent: %w", err)
	}

	var li llmIntent
	if err := json.Unmarshal([]byte(stripFences(raw)), &li); err != nil {
		return intent.Intent{}, fmt.Errorf("%w: decode intent: %w", domain.ErrLLMProviderError, err)
	}

	in, err := li.toIntent()
	if err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %w", domain.ErrInvalidIntent, err)
	}
	return in, nil
}

func (li llmIntent) toIntent() (intent.Intent, error) {
	p := intent.Params{
		PrimaryCategory: str(li.Category),
		Subcategory:     str(li.Subcategory),
		ProductType:     str(li.ProductType),
		UseCase:         str(li.UseCase),
		Source:          intent.SourceLLM,
		Confidence:      0.5,
		Filters: map[string]string{
			intent.SlotBrand:  str(li.Brand),
			intent.SlotColor:  str(li.Color),
			intent.SlotSize:   str(li.Size),
			intent.SlotGender: str(li.Gender),
		},
	}
	if li.Confidence != nil {
		p.Confidence = *li.Confidence
	}

	// Explicit amounts win over budget words.
	p.PriceMin, p.PriceMax = li.PriceMin, li.PriceMax
	if p.PriceMin == nil && p.PriceMax == nil {
		if band, ok := lookupPriceTerm(strings.ToLower(str(li.BudgetTerm))); ok {
			p.PriceMin, p.PriceMax = band.min, band.max
		}
	}

	p.Urgency, p.TimelineDays = normalizeUrgency(str(li.UrgencyTerm))
	return intent.New(p)
}

// normalizeUrgency maps a free-text urgency phrase to a level and timeline.
func normalizeUrgency(term string) (intent.Urgency, *int) {
	lower := strings.ToLower(term)
	if lower == "" {
		return intent.UrgencyNormal, nil
	}
	for _, r := range urgencyRules {
		if r.re.MatchString(lower) {
			if r.days < 0 {
				return r.urgency, nil
			}
			d := r.days
			return r.urgency, &d
		}
	}
	if u, err := intent.ParseUrgency(lower); err == nil {
		return u, nil
	}
	if strings.Contains(lower, "eventually") {
		return intent.UrgencyLow, nil
	}
	if strings.Contains(lower, "month") {
		d := 30
		return intent.UrgencyNormal, &d
	}
	return intent.UrgencyNormal, nil
}

func describeTaxonomy() string {
	var b strings.Builder
	for _, d := range Taxonomy {
		b.WriteString("- ")
		b.WriteString(d.Name)
		b.WriteString(": ")
		for i, s := range d.Subcategories {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.Name)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	if v := strings.TrimSpace(*p); !strings.EqualFold(v, "null") {
		return v
	}
	return ""
}
