package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// Confidence reported by the rule extractor.
const (
	ruleConfidenceCategory = 0.75
	ruleConfidenceUnknown  = 0.3
)

var (
	reBetween  = regexp.MustCompile(`between \$?(\d+(?:\.\d+)?) and \$?(\d+(?:\.\d+)?)`)
	reMaxPrice = regexp.MustCompile(`(?:under|below|less than) \$?(\d+(?:\.\d+)?)`)
	reMinPrice = regexp.MustCompile(`(?:over|above|more than) \$?(\d+(?:\.\d+)?)`)
	reExact    = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)

	reUseCase = regexp.MustCompile(`(?i)\bfor\s+(?:(?:a|an|the|my|our|his|her|their)\s+)?([a-z]+)`)
	reBrandBy = regexp.MustCompile(`\b(?:from|by)\s+([A-Z][a-zA-Z]+)\b`)
)

var urgencyRules = []struct {
	re      *regexp.Regexp
	urgency intent.Urgency
	days    int // -1 means no timeline
}{
	{regexp.MustCompile(`\b(urgent|asap|immediately|now|today)\b`), intent.UrgencyUrgent, 0},
	{regexp.MustCompile(`\btomorrow\b`), intent.UrgencyHigh, 1},
	{regexp.MustCompile(`\b(this|next) week\b`), intent.UrgencyHigh, 7},
	{regexp.MustCompile(`\bsoon\b`), intent.UrgencyModerate, 14},
	{regexp.MustCompile(`\bno rush\b`), intent.UrgencyLow, -1},
}

var genderRules = []struct {
	re    *regexp.Regexp
	value string
}{
	{regexp.MustCompile(`(\bmen's|\bmens\b|\bmale\b|\bfor men\b|\bfor him\b)`), "Men"},
	{regexp.MustCompile(`(\bwomen's|\bwomens\b|\bfemale\b|\bfor women\b|\bfor her\b)`), "Women"},
	{regexp.MustCompile(`\b(kids|children|child|boys|girls)\b`), "Kids"},
	{regexp.MustCompile(`\bunisex\b`), "Unisex"},
}

var (
	brands = []string{"nike", "adidas", "apple", "samsung", "sony", "kmart", "urbancare", "freshskin"}
	colors = []string{
		"black", "white", "red", "blue", "green", "yellow",
		"pink", "purple", "orange", "brown", "gray", "grey",
	}
	// Multi-word and longer sizes first so "xl" is not read as "l".
	sizes = []string{"one size", "xxl", "xl", "xs", "small", "medium", "large", "s", "m", "l"}

	notUseCases = map[string]bool{
		"me": true, "my": true, "her": true, "him": true, "them": true, "us": true,
		"men": true, "women": true,
	}
)

// RuleExtractor derives an intent from keyword tables and regular expressions.
// It never fails.
type RuleExtractor struct{}

// NewRuleExtractor creates a rule-based extractor.
func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

// Extract implements the intent extractor contract.
func (RuleExtractor) Extract(_ context.Context, query string) (intent.Intent, error) {
	lower := strings.ToLower(query)
	p := intent.Params{
		Source:     intent.SourceFallback,
		Confidence: ruleConfidenceUnknown,
		Filters:    map[string]string{},
	}

	if dept, sub, kw, ok := detectCategory(lower); ok {
		p.PrimaryCategory = dept
		p.Subcategory = sub
		p.ProductType = titleCase(kw)
		p.Confidence = ruleConfidenceCategory
	}

	band := extractPrice(lower)
	p.PriceMin, p.PriceMax = band.min, band.max

	p.Urgency = intent.UrgencyNormal
	for _, r := range urgencyRules {
		if r.re.MatchString(lower) {
			p.Urgency = r.urgency
			if r.days >= 0 {
				d := r.days
				p.TimelineDays = &d
			}
			break
		}
	}

	if b := extractBrand(query, lower); b != "" {
		p.Filters[intent.SlotBrand] = b
	}
	if c := firstWord(lower, colors); c != "" {
		p.Filters[intent.SlotColor] = titleCase(c)
	}
	if s := firstWord(lower, sizes); s != "" {
		if len(s) <= 3 {
			s = strings.ToUpper(s)
		} else {
			s = titleCase(s)
		}
		p.Filters[intent.SlotSize] = s
	}
	for _, g := range genderRules {
		if g.re.MatchString(lower) {
			p.Filters[intent.SlotGender] = g.value
			break
		}
	}

	for _, m := range reUseCase.FindAllStringSubmatch(query, -1) {
		if uc := strings.ToLower(m[1]); !notUseCases[uc] {
			p.UseCase = uc
			break
		}
	}

	// Every field above is already valid, so New cannot fail here.
	in, err := intent.New(p)
	if err != nil {
		return intent.New(intent.Params{Source: intent.SourceFallback, Confidence: ruleConfidenceUnknown})
	}
	return in, nil
}

func detectCategory(lower string) (dept, sub, keyword string, ok bool) {
	for _, d := range Taxonomy {
		for _, s := range d.Subcategories {
			for _, kw := range s.Keywords {
				if strings.Contains(lower, kw) {
					return d.Name, s.Name, kw, true
				}
			}
		}
	}
	return "", "", "", false
}

// extractPrice checks explicit ranges, then caps, then floors, then an exact
// price (+/-20%), and finally budget words.
func extractPrice(lower string) priceBand {
	if m := reBetween.FindStringSubmatch(lower); m != nil {
		return priceBand{min: parseNum(m[1]), max: parseNum(m[2])}
	}
	if m := reMaxPrice.FindStringSubmatch(lower); m != nil {
		return priceBand{max: parseNum(m[1])}
	}
	if m := reMinPrice.FindStringSubmatch(lower); m != nil {
		return priceBand{min: parseNum(m[1])}
	}
	if m := reExact.FindStringSubmatch(lower); m != nil {
		v := *parseNum(m[1])
		return priceBand{min: bound(v * 0.8), max: bound(v * 1.2)}
	}
	for _, p := range priceTerms {
		if containsWord(lower, p.term) {
			return p.band
		}
	}
	return priceBand{}
}

func extractBrand(query, lower string) string {
	if b := firstWord(lower, brands); b != "" {
		return titleCase(b)
	}
	if m := reBrandBy.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}

func parseNum(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// firstWord returns the first candidate present in text as a whole word.
func firstWord(text string, candidates []string) string {
	for _, c := range candidates {
		if containsWord(text, c) {
			return c
		}
	}
	return ""
}

func containsWord(text, word string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '\''
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
