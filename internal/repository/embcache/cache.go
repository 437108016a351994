package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

const keyPrefix = "vecrec:emb:"

// kv is the consumer interface over db.KVStore (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache memoizes embeddings per model and text. Store errors never fail a request.
type Cache struct {
	inner  domain.Embedder
	kv     kv
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps inner with a cache. ttl 0 keeps entries for 30 days.
func New(inner domain.Embedder, s kv, model string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{inner: inner, kv: s, model: model, ttl: ttl, logger: logger}
}

// Embed returns the cached vector or embeds and stores it. Hits report zero tokens.
func (c *Cache) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.store(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed serves hits from the cache and embeds only the misses.
func (c *Cache) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			out.Embeddings[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := domain.EmbedAll(ctx, c.inner, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed misses: %w", err)
	}
	for j, i := range missIdx {
		out.Embeddings[i] = res.Embeddings[j]
		c.store(ctx, keys[i], res.Embeddings[j])
	}
	out.PromptTokens, out.TotalTokens = res.PromptTokens, res.TotalTokens
	return out, nil
}

// HealthCheck delegates to the inner embedder when it supports it.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *Cache) key(text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.model + ":" + hex.EncodeToString(h[:])
}

func (c *Cache) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
	default:
		vec, derr := decode(data)
		if derr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return vec, true
		}
		c.logger.Warn("Embedding cache entry corrupt", zap.String("key", key), zap.Error(derr))
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
	return nil, false
}

func (c *Cache) store(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.kv.SetWithTTL(ctx, key, encode(vec), c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
