package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// DefaultMaxBatch caps the number of texts per provider call.
const DefaultMaxBatch = 256

// Limiter gates provider calls by token usage.
type Limiter interface {
	Allow(ctx context.Context) error
	Consume(tokens int64)
}

// Metered wraps an embedder with a token quota and request logging.
// Request counters and latency live in the transport layer.
type Metered struct {
	inner    domain.Embedder
	provider string
	model    string
	limiter  Limiter
	maxBatch int
	logger   *zap.Logger
}

// NewMetered wraps inner. limiter may be nil.
func NewMetered(inner domain.Embedder, provider, model string, limiter Limiter, logger *zap.Logger) *Metered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metered{
		inner: inner, provider: provider, model: model,
		limiter: limiter, maxBatch: DefaultMaxBatch,
		logger: logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// WithMaxBatch overrides the per-call batch cap.
func (m *Metered) WithMaxBatch(n int) *Metered {
	if n > 0 {
		m.maxBatch = n
	}
	return m
}

// Embed vectorizes one text.
func (m *Metered) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := m.allow(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	res, err := m.inner.Embed(ctx, text)
	if err != nil {
		m.logger.Error("Embedding failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	m.consume(res.TotalTokens)

	m.logger.Debug("Embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed vectorizes texts in chunks of at most maxBatch, checking the quota before each chunk.
func (m *Metered) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult
	if len(texts) == 0 {
		return out, nil
	}
	out.Embeddings = make([][]float32, 0, len(texts))

	start := time.Now()
	for offset := 0; offset < len(texts); offset += m.maxBatch {
		if err := m.allow(ctx); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		chunk := texts[offset:min(offset+m.maxBatch, len(texts))]
		res, err := domain.EmbedAll(ctx, m.inner, chunk)
		if err != nil {
			m.logger.Error("Batch embedding failed",
				zap.Int("offset", offset),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed at %d: %w", offset, err)
		}
		m.consume(res.TotalTokens)
		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	m.logger.Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// HealthCheck delegates to the inner embedder when it supports it.
func (m *Metered) HealthCheck(ctx context.Context) error {
	if hc, ok := m.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (m *Metered) allow(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	if err := m.limiter.Allow(ctx); err != nil {
		m.logger.Error("Token quota exceeded", zap.Error(err))
		return fmt.Errorf("quota: %w", err)
	}
	return nil
}

func (m *Metered) consume(tokens int) {
	if m.limiter != nil {
		m.limiter.Consume(int64(tokens))
	}
}
