package pipeline

import (
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

const maxWeatherTags = 3

// SearchText builds the text embedded as the query vector.
func SearchText(in intent.Intent, weatherTags []string) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	add(in.ProductType())
	add(in.PrimaryCategory())
	add(in.Subcategory())
	if uc := in.UseCase(); uc != "" {
		add("for " + uc)
	}
	if c, ok := in.Filter(intent.SlotColor); ok {
		add(c)
	}
	if b, ok := in.Filter(intent.SlotBrand); ok {
		add(b)
	}
	if g, ok := in.Filter(intent.SlotGender); ok {
		add("for " + g)
	}
	for i, tag := range weatherTags {
		if i == maxWeatherTags {
			break
		}
		add(tag)
	}

	if len(parts) == 0 {
		return "products"
	}
	return strings.Join(parts, " ")
}
