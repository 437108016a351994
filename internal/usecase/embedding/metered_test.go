package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	tokens    int
	err       error
	healthErr error
	batches   [][]string
	single    int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.single++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}, TotalTokens: m.tokens}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: m.tokens * len(texts)}, nil
}

func (m *mockEmbedder) HealthCheck(context.Context) error { return m.healthErr }

type mockLimiter struct {
	err      error
	consumed int64
	checks   int
}

func (m *mockLimiter) Allow(context.Context) error {
	m.checks++
	return m.err
}

func (m *mockLimiter) Consume(n int64) { m.consumed += n }

// --- Tests ---

func TestMetered_EmbedConsumesTokens(t *testing.T) {
	lim := &mockLimiter{}
	m := NewMetered(&mockEmbedder{tokens: 7}, "openai", "small", lim, nil)

	res, err := m.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || lim.consumed != 7 {
		t.Errorf("unexpected result %v, consumed %d", res.Embedding, lim.consumed)
	}
}

func TestMetered_QuotaRejects(t *testing.T) {
	inner := &mockEmbedder{}
	lim := &mockLimiter{err: domain.ErrEmbeddingQuotaExceeded}
	_, err := NewMetered(inner, "openai", "small", lim, nil).Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if inner.single != 0 {
		t.Error("provider must not be called after rejection")
	}
}

func TestMetered_EmbedError(t *testing.T) {
	boom := errors.New("provider down")
	_, err := NewMetered(&mockEmbedder{err: boom}, "openai", "small", nil, nil).Embed(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestMetered_BatchChunks(t *testing.T) {
	inner := &mockEmbedder{tokens: 1}
	lim := &mockLimiter{}
	m := NewMetered(inner, "openai", "small", lim, nil).WithMaxBatch(2)

	res, err := m.BatchEmbed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batches) != 3 || len(inner.batches[2]) != 1 {
		t.Errorf("expected chunks 2/2/1, got %v", inner.batches)
	}
	if len(res.Embeddings) != 5 || res.TotalTokens != 5 {
		t.Errorf("unexpected result: %d embeddings, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
	if lim.checks != 3 || lim.consumed != 5 {
		t.Errorf("expected 3 checks and 5 tokens, got %d and %d", lim.checks, lim.consumed)
	}
}

func TestMetered_BatchEmpty(t *testing.T) {
	inner := &mockEmbedder{}
	res, err := NewMetered(inner, "openai", "small", nil, nil).BatchEmbed(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 || len(inner.batches) != 0 {
		t.Errorf("unexpected: %+v, %v", res, err)
	}
}

func TestMetered_HealthCheck(t *testing.T) {
	boom := errors.New("unreachable")
	m := NewMetered(&mockEmbedder{healthErr: boom}, "openai", "small", nil, nil)
	if err := m.HealthCheck(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected delegated error, got %v", err)
	}
}
