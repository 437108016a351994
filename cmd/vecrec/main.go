package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/config"
	dbQdrant "github.com/kailas-cloud/vecrec/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/vecrec/internal/db/redis"
	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	logpkg "github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
	budgetrepo "github.com/kailas-cloud/vecrec/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/vecrec/internal/repository/catalog"
	"github.com/kailas-cloud/vecrec/internal/repository/embcache"
	"github.com/kailas-cloud/vecrec/internal/repository/session"
	chiTransport "github.com/kailas-cloud/vecrec/internal/transport/chi"
	natsTransport "github.com/kailas-cloud/vecrec/internal/transport/nats"
	openaiTransport "github.com/kailas-cloud/vecrec/internal/transport/openai"
	"github.com/kailas-cloud/vecrec/internal/transport/weather"
	constraintuc "github.com/kailas-cloud/vecrec/internal/usecase/constraint"
	embeddinguc "github.com/kailas-cloud/vecrec/internal/usecase/embedding"
	enrichuc "github.com/kailas-cloud/vecrec/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/vecrec/internal/usecase/health"
	intentuc "github.com/kailas-cloud/vecrec/internal/usecase/intent"
	"github.com/kailas-cloud/vecrec/internal/usecase/pipeline"
	rankinguc "github.com/kailas-cloud/vecrec/internal/usecase/ranking"
	retrievaluc "github.com/kailas-cloud/vecrec/internal/usecase/retrieval"
	synthesisuc "github.com/kailas-cloud/vecrec/internal/usecase/synthesis"
	tracing "github.com/kailas-cloud/vecrec/internal/usecase/trace"
	"github.com/kailas-cloud/vecrec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Service: "vecrec-api", Level: cfg.Logging.Level})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecrec API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	metrics.RegisterProviderMetrics()
	metrics.RegisterPipelineMetrics()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx := context.Background()
	dims := cfg.Embedding.Vectorizer.Dimensions

	cat, err := openCatalog(ctx, cfg.Database, dims, logger)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer cat.close()

	// Embedder chain, composition root
	queryEmbedder, embedHealth := buildEmbedder(ctx, cfg.Embedding, cat.kv, logger)

	var chat *openaiTransport.Chat
	if cfg.LLM.Enabled {
		chat = openaiTransport.NewChat(openaiTransport.ChatConfig{
			ClientConfig: openaiTransport.ClientConfig{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL},
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
		})
	}

	enricher, err := buildEnricher(cfg.Context, logger)
	if err != nil {
		logger.Fatal("Failed to build context enricher", zap.Error(err))
	}

	weights := rankinguc.DefaultWeights()
	if w := cfg.Ranking.Weights; !w.IsZero() {
		weights = rankinguc.Weights{
			Similarity:  w.Similarity,
			PriceFit:    w.PriceFit,
			FilterMatch: w.FilterMatch,
			StockLevel:  w.StockLevel,
			Popularity:  w.Popularity,
		}
	}
	ranker, err := rankinguc.New(weights, rankinguc.WithStockSaturation(cfg.Ranking.StockSaturation))
	if err != nil {
		logger.Fatal("Invalid ranking weights", zap.Error(err))
	}

	retention, err := tracing.NewRetention(cfg.Trace.Retention)
	if err != nil {
		logger.Fatal("Failed to create trace retention", zap.Error(err))
	}
	sinks := tracing.MultiSink{retention}
	if cfg.Trace.NATSURL != "" {
		nc, err := natsTransport.Connect(cfg.Trace.NATSURL, "vecrec")
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()
		sinks = append(sinks, natsTransport.NewTracePublisher(nc, cfg.Trace.NATSSubject))
		logger.Info("Publishing traces to NATS", zap.String("subject", cfg.Trace.NATSSubject))
	}

	deps := pipeline.Deps{
		IntentFallback:   intentuc.NewRuleExtractor(),
		Context:          enricher,
		Constraints:      constraintuc.New(cat.repo, cfg.Pipeline.PriceCap),
		Embedder:         queryEmbedder,
		Retriever:        retrievaluc.New(cat.repo, cfg.Pipeline.ScanParallelism),
		Ranker:           ranker,
		ResponseFallback: synthesisuc.NewTemplate(),
		Recorder:         tracing.NewRecorder(),
		Sink:             sinks,
	}
	// Leave LLM stages nil (not a typed nil pointer) so the fallbacks take over.
	if chat != nil {
		deps.Intent = intentuc.NewLLMExtractor(chat)
		deps.Response = synthesisuc.NewLLM(chat)
	}

	orch, err := pipeline.New(deps, pipeline.Config{
		Timeouts:          stageTimeouts(cfg.Pipeline.Timeouts),
		CandidatePool:     cfg.Pipeline.CandidatePool,
		TopN:              cfg.Pipeline.TopN,
		IncludeOutOfStock: cfg.Pipeline.IncludeOutOfStock,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	health := healthuc.New().
		Require("catalog", healthuc.CheckerFunc(cat.repo.Ping)).
		Require("embedding", embedHealth)
	if chat != nil {
		health.Optional("llm", chat)
	}

	server := chiTransport.NewServer(orch, retention, health, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// catalogRepo is what the pipeline needs from a catalog backend.
type catalogRepo interface {
	constraintuc.Inventory
	retrievaluc.Scanner
	Ping(ctx context.Context) error
}

// kvStore backs the embedding cache and the quota counters.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) error
}

type catalog struct {
	repo  catalogRepo
	kv    kvStore // nil for memory and qdrant
	close func()
}

// openCatalog connects the configured driver. Redis and Valkey share the rueidis driver.
func openCatalog(ctx context.Context, cfg config.DatabaseConfig, dims int, logger *zap.Logger) (*catalog, error) {
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverMemory:
		repo, err := catalogrepo.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded catalog", zap.String("file", cfg.CatalogFile), zap.Int("items", repo.Len()))
		return &catalog{repo: repo, close: func() {}}, nil

	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		repo := catalogrepo.NewRedis(store, dims).WithHNSW(catalogrepo.HNSWConfig{
			M:           cfg.HNSWM,
			EFConstruct: cfg.HNSWEFConstruct,
		})
		if err := repo.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Connected to database")
		return &catalog{repo: repo, kv: store, close: store.Close}, nil

	case config.DriverQdrant:
		store, err := dbQdrant.New(cfg.Addrs[0], cfg.Collection)
		if err != nil {
			return nil, err
		}
		readyCtx, cancel := context.WithTimeout(ctx, readiness)
		defer cancel()
		if err := store.Ping(readyCtx); err != nil {
			store.Close()
			return nil, fmt.Errorf("qdrant not ready: %w", err)
		}
		repo := catalogrepo.NewQdrant(store, dims)
		if err := repo.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Connected to qdrant", zap.String("collection", cfg.Collection))
		return &catalog{repo: repo, close: store.Close}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// buildEmbedder assembles the query decorator chain: OpenAI -> Cache -> Metered -> query instruction.
// The returned checker probes the provider directly.
func buildEmbedder(
	ctx context.Context, cfg config.EmbeddingConfig, kv kvStore, logger *zap.Logger,
) (domain.Embedder, healthuc.Checker) {
	vec := cfg.Vectorizer
	prov := cfg.Providers[vec.Provider]

	base := openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
		ClientConfig: openaiTransport.ClientConfig{APIKey: prov.APIKey, BaseURL: prov.BaseURL},
		Model:        vec.Model,
		Dimensions:   vec.Dimensions,
		Provider:     vec.Provider,
	})

	var embedder domain.Embedder = base
	if kv != nil {
		embedder = embcache.New(base, kv, vec.Model, time.Duration(cfg.CacheTTLHours)*time.Hour, logger)
	}

	// Pass a nil interface (not a typed nil pointer) when no budget is configured.
	var limiter embeddinguc.Limiter
	if q := buildQuota(ctx, vec.Provider, prov.Budget, kv, logger); q != nil {
		limiter = q
	}
	embedder = embeddinguc.NewMetered(embedder, vec.Provider, vec.Model, limiter, logger).
		WithMaxBatch(cfg.MaxBatch)

	logger.Info("Embedder created",
		zap.String("provider", vec.Provider),
		zap.String("model", vec.Model),
		zap.Int("dimensions", vec.Dimensions),
	)

	// Instruction prefix is outermost so the cache key includes it.
	embedder = domain.WithInstruction(embedder, domain.Instructions{
		Query: vec.QueryInstruction,
		Item:  vec.DocumentInstruction,
	}, domain.RoleQuery)
	return embedder, base
}

func buildQuota(
	ctx context.Context, provider string, b config.BudgetConfig, kv kvStore, logger *zap.Logger,
) *embeddinguc.Quota {
	if b.DailyTokenLimit <= 0 && b.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.ActionWarn
	if b.Action == string(embeddinguc.ActionReject) {
		action = embeddinguc.ActionReject
	}
	q := embeddinguc.NewQuota(provider, action, []embeddinguc.Window{
		{Period: embeddinguc.Daily, Limit: b.DailyTokenLimit},
		{Period: embeddinguc.Monthly, Limit: b.MonthlyTokenLimit},
	}, logger)
	if kv != nil {
		q.WithStore(ctx, budgetrepo.New(kv))
	}
	return q
}

func buildEnricher(cfg config.ContextConfig, logger *zap.Logger) (*enrichuc.Service, error) {
	var provider enrichuc.WeatherProvider
	if cfg.WeatherEnabled {
		provider = weather.New(cfg.WeatherURL, time.Duration(cfg.WeatherEveryMS)*time.Millisecond, cfg.WeatherBurst)
	}
	var sessions enrichuc.SessionStore
	if !cfg.SessionsDisabled {
		s, err := session.New(cfg.MaxSessions, cfg.HistorySize)
		if err != nil {
			return nil, err
		}
		sessions = s
	}
	return enrichuc.New(provider, sessions, enrichuc.Config{
		Location:    cfg.Location,
		Hemisphere:  enrichment.Hemisphere(cfg.Hemisphere),
		HistorySize: cfg.HistorySize,
	}, logger), nil
}

func stageTimeouts(t config.TimeoutsConfig) pipeline.Timeouts {
	return pipeline.Timeouts{
		Intent:     config.StageTimeout(t.IntentMS),
		Context:    config.StageTimeout(t.ContextMS),
		Constraint: config.StageTimeout(t.ConstraintMS),
		Candidate:  config.StageTimeout(t.CandidateMS),
		Rank:       config.StageTimeout(t.RankMS),
		Response:   config.StageTimeout(t.ResponseMS),
	}
}
