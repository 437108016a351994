package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
)

const systemPrompt = `You are a helpful shopping assistant for an online store.
Write a friendly, concise response of three to five sentences. Acknowledge what the
customer is looking for, highlight the top two or three products by name and price,
and say briefly why they match. Plain text only, no markdown.`

// LLM writes the response with a chat model.
type LLM struct {
	chat ChatClient
}

// NewLLM creates an LLM-backed synthesizer.
func NewLLM(chat ChatClient) *LLM {
	return &LLM{chat: chat}
}

// Synthesize implements the synthesizer contract. An empty ranking is answered
// without calling the model.
func (s *LLM) Synthesize(
	ctx context.Context, ranked []recommendation.RankedResult, in intent.Intent, c enrichment.Context,
) (string, error) {
	if len(ranked) == 0 {
		return NoResultsText, nil
	}

	out, err := s.chat.Complete(ctx, systemPrompt, buildPrompt(ranked, in, c))
	if err != nil {
		return "", fmt.Errorf("complete response: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrLLMProviderError)
	}
	return out, nil
}

func buildPrompt(ranked []recommendation.RankedResult, in intent.Intent, c enrichment.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The customer asked about: %s\n", productLabel(in))
	if cat := in.PrimaryCategory(); cat != "" {
		fmt.Fprintf(&b, "Category: %s\n", cat)
	}
	if uc := in.UseCase(); uc != "" {
		fmt.Fprintf(&b, "Use case: %s\n", uc)
	}
	if c.Weather.Condition != "" {
		fmt.Fprintf(&b, "Current weather: %dC, %s\n", c.Weather.TempC, c.Weather.Condition)
	}

	b.WriteString("\nTop matching products:\n")
	for i, r := range ranked {
		it := r.Item
		fmt.Fprintf(&b, "%d. %s\n   Brand: %s\n   Price: $%.2f\n   Color: %s\n   Stock: %d units\n   Match score: %.0f%%\n",
			i+1, it.Title(), orNA(it.Brand()), it.Price(), orNA(it.Color()), it.StockQuantity(), r.FinalScore*100)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
