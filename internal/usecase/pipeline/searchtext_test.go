package pipeline

import (
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

func TestSearchText(t *testing.T) {
	in, err := intent.New(intent.Params{
		PrimaryCategory: "Clothing",
		Subcategory:     "Footwear",
		ProductType:     "running shoes",
		UseCase:         "marathon",
		Filters:         map[string]string{"color": "red", "brand": "Nike", "gender": "Women"},
		Confidence:      0.8,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := SearchText(in, []string{"warm", "sunny", "outdoor", "humid"})
	want := "running shoes Clothing Footwear for marathon red Nike for Women warm sunny outdoor"
	if got != want {
		t.Errorf("SearchText = %q, want %q", got, want)
	}
}

func TestSearchText_Empty(t *testing.T) {
	in, err := intent.New(intent.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if got := SearchText(in, nil); got != "products" {
		t.Errorf("expected default text, got %q", got)
	}
}

func TestTimeouts_For(t *testing.T) {
	var tm Timeouts
	if got := tm.For("CANDIDATE"); got != DefaultTimeouts().Candidate {
		t.Errorf("expected default candidate budget, got %s", got)
	}
	tm.Rank = 7
	if got := tm.For("RANK"); got != 7 {
		t.Errorf("expected override, got %s", got)
	}
}
