package domain

import (
	"context"
	"fmt"
)

// Embedder turns a shopper request or catalog item text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes many texts per provider call. Ingestion prefers it.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker is implemented by embedders that can report provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one vector plus the tokens it cost.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order and their summed token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedAll vectorizes texts with a batch call when e supports it, one by one otherwise.
// The result always has one vector per text.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	be, ok := e.(BatchEmbedder)
	if !ok {
		return embedEach(ctx, e, texts)
	}
	res, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return BatchEmbeddingResult{}, err
	}
	if len(res.Embeddings) != len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrEmbeddingProviderError, len(res.Embeddings), len(texts))
	}
	return res, nil
}

func embedEach(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed text %d: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// Role says which side of an asymmetric model a text is embedded for.
type Role int

const (
	// RoleQuery is a shopper request at recommendation time.
	RoleQuery Role = iota
	// RoleItem is catalog item text at ingestion time.
	RoleItem
)

func (r Role) String() string {
	if r == RoleItem {
		return "item"
	}
	return "query"
}

// Instructions are the per-role prefixes an asymmetric model expects, such as
// "query: " and "passage: ". Queries and items must be embedded with the
// matching pair or their vectors are not comparable.
type Instructions struct {
	Query string
	Item  string
}

// For returns the prefix for r.
func (in Instructions) For(r Role) string {
	if r == RoleItem {
		return in.Item
	}
	return in.Query
}

// WithInstruction wraps e so every text embedded for role r carries the
// role's prefix. With no prefix configured e is returned unchanged.
func WithInstruction(e Embedder, in Instructions, r Role) Embedder {
	prefix := in.For(r)
	if prefix == "" {
		return e
	}
	return &roleEmbedder{inner: e, role: r, prefix: prefix}
}

type roleEmbedder struct {
	inner  Embedder
	role   Role
	prefix string
}

func (e *roleEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.prefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("%s embed: %w", e.role, err)
	}
	return res, nil
}

func (e *roleEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.prefix + t
	}
	res, err := EmbedAll(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("%s batch embed: %w", e.role, err)
	}
	return res, nil
}

func (e *roleEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
