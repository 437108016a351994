package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// --- Mocks ---

type mockChat struct {
	out        string
	err        error
	gotSystem  string
	gotMessage string
}

func (m *mockChat) CompleteJSON(_ context.Context, system, user string) (string, error) {
	m.gotSystem, m.gotMessage = system, user
	return m.out, m.err
}

// --- Tests ---

func TestLLMExtractor_Parses(t *testing.T) {
	chat := &mockChat{out: "```json\n" + `{
		"product_category": "Clothing & Accessories",
		"product_subcategory": "Athletic Wear",
		"product_type": "running shoes",
		"budget_term": "cheap",
		"price_min": null,
		"price_max": null,
		"urgency_term": "next week",
		"use_case": "marathon",
		"gender": null,
		"size": "null",
		"color": "red",
		"brand": "Nike",
		"confidence": 0.9
	}` + "\n```"}

	in, err := NewLLMExtractor(chat).Extract(context.Background(), "cheap red nike running shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(chat.gotSystem, "Athletic Wear") {
		t.Error("expected taxonomy in system prompt")
	}
	if in.Source() != intent.SourceLLM || in.Confidence() != 0.9 {
		t.Errorf("unexpected source/confidence %s/%v", in.Source(), in.Confidence())
	}
	if hi, ok := in.PriceMax(); !ok || hi != 50 {
		t.Errorf("expected budget term to map to max 50, got %v", hi)
	}
	if in.Urgency() != intent.UrgencyHigh {
		t.Errorf("expected high, got %s", in.Urgency())
	}
	if _, ok := in.Filter(intent.SlotSize); ok {
		t.Error("expected literal null to be dropped")
	}
	if b, _ := in.Filter(intent.SlotBrand); b != "Nike" {
		t.Errorf("expected brand Nike, got %q", b)
	}
}

func TestLLMExtractor_ExplicitPriceWins(t *testing.T) {
	chat := &mockChat{out: `{"budget_term":"luxury","price_max":80,"confidence":0.8}`}
	in, err := NewLLMExtractor(chat).Extract(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := in.PriceMin(); ok {
		t.Error("expected budget term ignored when explicit price is set")
	}
	if hi, _ := in.PriceMax(); hi != 80 {
		t.Errorf("expected 80, got %v", hi)
	}
}

func TestLLMExtractor_Malformed(t *testing.T) {
	_, err := NewLLMExtractor(&mockChat{out: "I think you want shoes"}).Extract(context.Background(), "q")
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestLLMExtractor_InvalidConfidence(t *testing.T) {
	_, err := NewLLMExtractor(&mockChat{out: `{"confidence": 7}`}).Extract(context.Background(), "q")
	if !errors.Is(err, domain.ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestLLMExtractor_ProviderError(t *testing.T) {
	boom := errors.New("503")
	_, err := NewLLMExtractor(&mockChat{err: boom}).Extract(context.Background(), "q")
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestNormalizeUrgency(t *testing.T) {
	tests := []struct {
		term string
		want intent.Urgency
		days int
	}{
		{"ASAP", intent.UrgencyUrgent, 0},
		{"within a month", intent.UrgencyNormal, 30},
		{"eventually", intent.UrgencyLow, -1},
		{"medium", intent.UrgencyModerate, -1},
		{"", intent.UrgencyNormal, -1},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			u, d := normalizeUrgency(tt.term)
			if u != tt.want {
				t.Errorf("expected %s, got %s", tt.want, u)
			}
			if (tt.days < 0) != (d == nil) || (d != nil && *d != tt.days) {
				t.Errorf("unexpected timeline %v", d)
			}
		})
	}
}
