package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Defaults.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4
)

// Report summarizes one ingestion run.
type Report struct {
	Items    int
	Embedded int
	Batches  int
	Tokens   int
}

// Service embeds catalog items and writes them to a store.
type Service struct {
	store     Writer
	embed     domain.Embedder
	batchSize int
	workers   int
	logger    *zap.Logger
}

// New creates an ingestion service.
func New(store Writer, embed domain.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: store, embed: embed,
		batchSize: DefaultBatchSize, workers: DefaultWorkers,
		logger: logger,
	}
}

// WithBatchSize sets how many items are embedded per provider call.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithWorkers sets the number of concurrent batches.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Ingest ensures the store schema, embeds items that carry no vector and upserts
// everything in batches. The first failing batch cancels the rest.
func (s *Service) Ingest(ctx context.Context, items []domcat.Item) (Report, error) {
	if se, ok := s.store.(SchemaEnsurer); ok {
		if err := se.EnsureSchema(ctx); err != nil {
			return Report{}, fmt.Errorf("ensure schema: %w", err)
		}
	}

	var embedded, tokens, batches atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(items); start += s.batchSize {
		batch := items[start:min(start+s.batchSize, len(items))]
		offset := start
		g.Go(func() error {
			n, tok, err := s.embedBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch at %d: %w", offset, err)
			}
			if err := s.store.Upsert(gctx, batch); err != nil {
				return fmt.Errorf("upsert batch at %d: %w", offset, err)
			}
			embedded.Add(int64(n))
			tokens.Add(int64(tok))
			batches.Add(1)
			s.logger.Debug("Batch ingested", zap.Int("offset", offset), zap.Int("size", len(batch)))
			return nil
		})
	}
	err := g.Wait()

	rep := Report{
		Items:    len(items),
		Embedded: int(embedded.Load()),
		Batches:  int(batches.Load()),
		Tokens:   int(tokens.Load()),
	}
	if err != nil {
		return rep, err
	}
	s.logger.Info("Catalog ingested",
		zap.Int("items", rep.Items),
		zap.Int("embedded", rep.Embedded),
		zap.Int("batches", rep.Batches),
		zap.Int("tokens", rep.Tokens),
	)
	return rep, nil
}

// embedBatch fills in missing embeddings in place.
func (s *Service) embedBatch(ctx context.Context, batch []domcat.Item) (int, int, error) {
	var idx []int
	var texts []string
	for i, it := range batch {
		if !it.HasEmbedding() {
			idx = append(idx, i)
			texts = append(texts, it.Text())
		}
	}
	if len(texts) == 0 {
		return 0, 0, nil
	}

	res, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("embed: %w", err)
	}
	for j, i := range idx {
		batch[i] = batch[i].WithEmbedding(res.Embeddings[j])
	}
	return len(idx), res.TotalTokens, nil
}
