// Command ingest embeds a JSON-lines product catalog and loads it into the configured store.
//
// Usage:
//
//	ingest -file catalog.jsonl -workers 4 -batch-size 32
//
// The memory driver has no server to load into, so the embedded catalog is written to -out
// and can be served with database.catalog_file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/config"
	dbQdrant "github.com/kailas-cloud/vecrec/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/vecrec/internal/db/redis"
	"github.com/kailas-cloud/vecrec/internal/domain"
	logpkg "github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
	catalogrepo "github.com/kailas-cloud/vecrec/internal/repository/catalog"
	openaiTransport "github.com/kailas-cloud/vecrec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecrec/internal/usecase/embedding"
	"github.com/kailas-cloud/vecrec/internal/usecase/ingest"
)

type flags struct {
	file      string
	out       string
	workers   int
	batchSize int
}

func parseFlags() flags {
	f := flags{}
	flag.StringVar(&f.file, "file", "", "JSON-lines catalog to ingest (default: database.catalog_file)")
	flag.StringVar(&f.out, "out", "", "output file for the memory driver (default: <file>.embedded.jsonl)")
	flag.IntVar(&f.workers, "workers", ingest.DefaultWorkers, "number of concurrent batches")
	flag.IntVar(&f.batchSize, "batch-size", ingest.DefaultBatchSize, "items per embedding call")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	logger, err := logpkg.NewLogger(env, logpkg.Options{Service: "vecrec-ingest", Level: cfg.Logging.Level})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, f, logger); err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, f flags, logger *zap.Logger) error {
	start := time.Now()
	metrics.RegisterProviderMetrics()

	if f.file == "" {
		f.file = cfg.Database.CatalogFile
	}
	if f.file == "" {
		return fmt.Errorf("-file is required")
	}
	src, err := catalogrepo.LoadFile(f.file)
	if err != nil {
		return err
	}
	items := src.Items()

	vec := cfg.Embedding.Vectorizer
	prov := cfg.Embedding.Providers[vec.Provider]
	var embedder domain.Embedder = embeddinguc.NewMetered(
		openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
			ClientConfig: openaiTransport.ClientConfig{APIKey: prov.APIKey, BaseURL: prov.BaseURL},
			Model:        vec.Model,
			Dimensions:   vec.Dimensions,
			Provider:     vec.Provider,
		}),
		vec.Provider, vec.Model, nil, logger,
	).WithMaxBatch(cfg.Embedding.MaxBatch)
	embedder = domain.WithInstruction(embedder, domain.Instructions{
		Query: vec.QueryInstruction,
		Item:  vec.DocumentInstruction,
	}, domain.RoleItem)

	writer, finish, err := openWriter(ctx, cfg.Database, vec.Dimensions, f, logger)
	if err != nil {
		return err
	}

	rep, err := ingest.New(writer, embedder, logger).
		WithBatchSize(f.batchSize).
		WithWorkers(f.workers).
		Ingest(ctx, items)
	if err != nil {
		return err
	}
	if err := finish(); err != nil {
		return err
	}

	logger.Info("Ingest complete",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("items", rep.Items),
		zap.Int("embedded", rep.Embedded),
		zap.Int("batches", rep.Batches),
		zap.Int("tokens", rep.Tokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// openWriter returns the store to ingest into and a function that flushes and closes it.
func openWriter(
	ctx context.Context, cfg config.DatabaseConfig, dims int, f flags, logger *zap.Logger,
) (ingest.Writer, func() error, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		repo := catalogrepo.NewRedis(store, dims).WithHNSW(catalogrepo.HNSWConfig{
			M:           cfg.HNSWM,
			EFConstruct: cfg.HNSWEFConstruct,
		})
		return repo, func() error { store.Close(); return nil }, nil

	case config.DriverQdrant:
		store, err := dbQdrant.New(cfg.Addrs[0], cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return catalogrepo.NewQdrant(store, dims), func() error { store.Close(); return nil }, nil

	case config.DriverMemory:
		out := f.out
		if out == "" {
			out = embeddedPath(f.file)
		}
		repo := catalogrepo.NewMemory()
		return repo, func() error {
			file, err := os.Create(filepath.Clean(out))
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := catalogrepo.WriteRecords(file, repo.Items()); err != nil {
				_ = file.Close()
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Info("Wrote embedded catalog", zap.String("file", out), zap.Int("items", repo.Len()))
			return file.Close()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func embeddedPath(src string) string {
	ext := filepath.Ext(src)
	return src[:len(src)-len(ext)] + ".embedded" + ext
}
