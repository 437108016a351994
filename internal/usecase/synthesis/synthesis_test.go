package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

// --- Mocks ---

type mockChat struct {
	out    string
	err    error
	called bool
	prompt string
}

func (m *mockChat) Complete(_ context.Context, _, user string) (string, error) {
	m.called = true
	m.prompt = user
	return m.out, m.err
}

func ranked(t *testing.T) []recommendation.RankedResult {
	t.Helper()
	a, _ := catalog.NewItem(catalog.ItemParams{SKU: "A", Title: "Trail Runner", Brand: "Nike", Price: 39, StockQuantity: 5})
	b, _ := catalog.NewItem(catalog.ItemParams{SKU: "B", Title: "Road Racer", Price: 45.5, StockQuantity: 3})
	return []recommendation.RankedResult{
		{Candidate: recommendation.Candidate{Item: a}, FinalScore: 0.82},
		{Candidate: recommendation.Candidate{Item: b}, FinalScore: 0.61},
	}
}

// --- Tests ---

func TestRender(t *testing.T) {
	in, _ := intent.New(intent.Params{ProductType: "Running Shoes"})
	want := "Here are my top 2 recommendations for Running Shoes:\n" +
		"\n1. Trail Runner - $39.00 (Nike)" +
		"\n2. Road Racer - $45.50 (N/A)"
	if got := Render(ranked(t), in); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestRender_UrgentNote(t *testing.T) {
	in, _ := intent.New(intent.Params{Urgency: intent.UrgencyUrgent})
	got := Render(ranked(t), in)
	if !strings.HasSuffix(got, urgentNote) {
		t.Errorf("expected urgency note, got %q", got)
	}
	if !strings.Contains(got, "recommendations for products:") {
		t.Errorf("expected generic label, got %q", got)
	}
}

func TestRender_UrgentWithOutOfStock(t *testing.T) {
	in, _ := intent.New(intent.Params{Urgency: intent.UrgencyUrgent})
	sold, _ := catalog.NewItem(catalog.ItemParams{SKU: "C", Title: "Last Season", Price: 20})
	results := append(ranked(t), recommendation.RankedResult{Candidate: recommendation.Candidate{Item: sold}})

	got := Render(results, in)
	if strings.Contains(got, urgentNote) {
		t.Errorf("must not claim everything is in stock: %q", got)
	}
	if !strings.Contains(got, "3. Last Season - $20.00 (N/A) (out of stock)") || !strings.HasSuffix(got, urgentPartialNote) {
		t.Errorf("expected out-of-stock marking, got %q", got)
	}
}

func TestRender_Empty(t *testing.T) {
	in, _ := intent.New(intent.Params{})
	if got := Render(nil, in); got != NoResultsText {
		t.Errorf("expected no-results text, got %q", got)
	}
}

func TestLLM_Synthesize(t *testing.T) {
	chat := &mockChat{out: "  Try the Trail Runner.  "}
	in, _ := intent.New(intent.Params{ProductType: "Running Shoes", UseCase: "marathon"})
	c := enrichment.Context{Weather: enrichment.Weather{TempC: 31, Condition: "Sunny"}}

	got, err := NewLLM(chat).Synthesize(context.Background(), ranked(t), in, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Try the Trail Runner." {
		t.Errorf("expected trimmed output, got %q", got)
	}
	for _, want := range []string{"Running Shoes", "Use case: marathon", "31C, Sunny", "$39.00", "Match score: 82%"} {
		if !strings.Contains(chat.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, chat.prompt)
		}
	}
}

func TestLLM_EmptyRankingSkipsModel(t *testing.T) {
	chat := &mockChat{}
	in, _ := intent.New(intent.Params{})
	got, err := NewLLM(chat).Synthesize(context.Background(), nil, in, enrichment.Context{})
	if err != nil || got != NoResultsText || chat.called {
		t.Errorf("expected no-results text without a model call, got %q, %v", got, err)
	}
}

func TestLLM_Errors(t *testing.T) {
	in, _ := intent.New(intent.Params{})

	_, err := NewLLM(&mockChat{out: "   "}).Synthesize(context.Background(), ranked(t), in, enrichment.Context{})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected ErrLLMProviderError for empty output, got %v", err)
	}

	boom := errors.New("quota")
	_, err = NewLLM(&mockChat{err: boom}).Synthesize(context.Background(), ranked(t), in, enrichment.Context{})
	if !errors.Is(err, boom) {
		t.Errorf("expected provider error, got %v", err)
	}
}
