package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/vecrec/internal/db"
	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// --- Mocks ---

type mockEmbedder struct {
	vec        []float32
	tokens     int
	err        error
	calls      int
	batchTexts [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchTexts = append(m.batchTexts, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vec
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: m.tokens * len(texts)}, nil
}

type mockKV struct {
	data   map[string][]byte
	ttl    time.Duration
	getErr error
	setErr error
}

func newMockKV() *mockKV { return &mockKV{data: map[string][]byte{}} }

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttl = ttl
	return nil
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{0.5, -1}, tokens: 3}
	kv := newMockKV()
	c := New(inner, kv, "small", time.Hour, nil)
	hits := testutil.ToFloat64(metrics.EmbeddingCacheTotal.WithLabelValues("hit"))

	first, err := c.Embed(context.Background(), "red shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 3 {
		t.Errorf("miss should report provider tokens, got %d", first.TotalTokens)
	}
	if kv.ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %s", kv.ttl)
	}

	second, err := c.Embed(context.Background(), "red shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected one provider call, got %d", inner.calls)
	}
	if second.TotalTokens != 0 || second.Embedding[0] != 0.5 || second.Embedding[1] != -1 {
		t.Errorf("unexpected cached result: %+v", second)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingCacheTotal.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("expected hit counter +1, got %v -> %v", hits, got)
	}
}

func TestEmbed_KeyIncludesModel(t *testing.T) {
	kv := newMockKV()
	_, _ = New(&mockEmbedder{vec: []float32{1}}, kv, "large", 0, nil).Embed(context.Background(), "x")
	for k := range kv.data {
		if !strings.HasPrefix(k, "vecrec:emb:large:") {
			t.Errorf("unexpected key %q", k)
		}
	}
	if kv.ttl != 30*24*time.Hour {
		t.Errorf("expected default ttl, got %s", kv.ttl)
	}
}

func TestEmbed_StoreErrorsIgnored(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("read down")
	kv.setErr = errors.New("write down")
	res, err := New(&mockEmbedder{vec: []float32{1}}, kv, "m", 0, nil).Embed(context.Background(), "x")
	if err != nil || len(res.Embedding) != 1 {
		t.Fatalf("expected pass-through, got %+v, %v", res, err)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{2}}
	kv := newMockKV()
	c := New(inner, kv, "m", 0, nil)
	kv.data[c.key("x")] = []byte{1, 2, 3}

	res, err := c.Embed(context.Background(), "x")
	if err != nil || inner.calls != 1 || res.Embedding[0] != 2 {
		t.Errorf("expected provider call on corrupt entry, got %+v, %v", res, err)
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	boom := errors.New("down")
	_, err := New(&mockEmbedder{err: boom}, newMockKV(), "m", 0, nil).Embed(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestBatchEmbed_OnlyMisses(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{9}, tokens: 2}
	kv := newMockKV()
	c := New(inner, kv, "m", 0, nil)
	kv.data[c.key("b")] = encode([]float32{7})

	res, err := c.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchTexts) != 1 || strings.Join(inner.batchTexts[0], ",") != "a,c" {
		t.Errorf("expected misses a,c embedded, got %v", inner.batchTexts)
	}
	if res.Embeddings[0][0] != 9 || res.Embeddings[1][0] != 7 || res.Embeddings[2][0] != 9 {
		t.Errorf("unexpected order: %v", res.Embeddings)
	}
	if res.TotalTokens != 4 {
		t.Errorf("expected 4 tokens, got %d", res.TotalTokens)
	}
	if _, ok := kv.data[c.key("c")]; !ok {
		t.Error("expected miss stored")
	}
}

func TestBatchEmbed_AllHits(t *testing.T) {
	inner := &mockEmbedder{}
	kv := newMockKV()
	c := New(inner, kv, "m", 0, nil)
	kv.data[c.key("a")] = encode([]float32{1})

	if _, err := c.BatchEmbed(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchTexts) != 0 {
		t.Error("provider should not be called")
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0, 1.5, -3.25}
	out, err := decode(encode(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
}
