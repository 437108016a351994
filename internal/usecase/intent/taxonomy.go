package intent

// Subcategory maps a subcategory to the product keywords that select it.
type Subcategory struct {
	Name     string
	Keywords []string
}

// Department is a top-level catalog category.
type Department struct {
	Name          string
	Subcategories []Subcategory
}

// Taxonomy is the category tree shared by both extractors. Order matters:
// the first keyword found wins.
var Taxonomy = []Department{
	{Name: "Beauty & Personal Care", Subcategories: []Subcategory{
		{"Haircare", []string{"shampoo", "conditioner", "hair oil", "hair product", "haircare", "hair mask"}},
		{"Skincare", []string{"moisturizer", "cleanser", "serum", "skincare", "face cream", "lotion"}},
		{"Grooming Kits", []string{"grooming kit", "grooming set", "shaving kit"}},
		{"Fragrances", []string{"perfume", "cologne", "fragrance", "scent", "deodorant"}},
	}},
	{Name: "Clothing & Accessories", Subcategories: []Subcategory{
		{"Athletic Wear", []string{"running shoes", "sneakers", "trainers", "athletic shoes", "sports shoes"}},
		{"Casual Wear", []string{"t-shirt", "jeans", "casual wear", "shirt", "pants"}},
		{"Accessories", []string{"watch", "belt", "wallet", "bag", "sunglasses"}},
	}},
	{Name: "Home & Living", Subcategories: []Subcategory{
		{"Kitchenware", []string{"cookware", "utensils", "kitchen", "pots", "pans"}},
		{"Furniture", []string{"chair", "table", "sofa", "bed", "furniture"}},
		{"Decor", []string{"artwork", "vase", "decoration", "decor"}},
	}},
	{Name: "Gifts & Photo Products", Subcategories: []Subcategory{
		{"Photo Frames", []string{"photo frame", "picture frame", "frame"}},
		{"Gift Sets", []string{"gift set", "gift pack", "gift"}},
	}},
	{Name: "Nursery & Kids", Subcategories: []Subcategory{
		{"Toys", []string{"toy", "toys", "playset", "action figure", "doll"}},
		{"Kids Furniture", []string{"crib", "changing table", "kids bed"}},
	}},
}

type priceBand struct {
	min, max *float64
}

func bound(v float64) *float64 { return &v }

// priceTerms maps budget words to price bands.
var priceTerms = []struct {
	term string
	band priceBand
}{
	{"cheap", priceBand{max: bound(50)}},
	{"budget", priceBand{max: bound(50)}},
	{"affordable", priceBand{max: bound(80)}},
	{"mid-range", priceBand{min: bound(50), max: bound(150)}},
	{"moderate", priceBand{min: bound(50), max: bound(150)}},
	{"premium", priceBand{min: bound(150), max: bound(500)}},
	{"expensive", priceBand{min: bound(150), max: bound(500)}},
	{"luxury", priceBand{min: bound(500)}},
}

func lookupPriceTerm(s string) (priceBand, bool) {
	for _, p := range priceTerms {
		if p.term == s {
			return p.band, true
		}
	}
	return priceBand{}, false
}
