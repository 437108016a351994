package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// EmbedderConfig holds the embedding provider settings.
type EmbedderConfig struct {
	ClientConfig
	Model      string
	Dimensions int
	Provider   string
}

// Embedder is an embedding provider on the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
}

// NewEmbedder creates an embedding provider.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	return &Embedder{
		client:     newClient(cfg.ClientConfig),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   cfg.Provider,
	}
}

// Embed vectorizes one text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed vectorizes texts in one request. Vectors are returned in input order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	call := metrics.StartProviderCall(metrics.APIEmbeddings, e.provider, string(e.model))
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		call.Done("api_error")
		return domain.BatchEmbeddingResult{}, apiError("embedding", err, domain.ErrEmbeddingProviderError)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	for i, v := range out {
		if len(v) == 0 {
			call.Done("short_response")
			return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: no vector for input %d of %d",
				domain.ErrEmbeddingProviderError, i, len(texts))
		}
	}

	call.Done("")
	call.Tokens(resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
