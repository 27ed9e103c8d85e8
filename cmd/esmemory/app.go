package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/config"
	"github.com/kailas-cloud/esmemory/internal/db"
	"github.com/kailas-cloud/esmemory/internal/db/elastic"
	"github.com/kailas-cloud/esmemory/internal/db/memdb"
	dbRedis "github.com/kailas-cloud/esmemory/internal/db/redis"
	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/indexname"
	logpkg "github.com/kailas-cloud/esmemory/internal/logger"
	"github.com/kailas-cloud/esmemory/internal/metrics"
	"github.com/kailas-cloud/esmemory/internal/repository/embcache"
	memoryrepo "github.com/kailas-cloud/esmemory/internal/repository/memory"
	openaiEmb "github.com/kailas-cloud/esmemory/internal/transport/openai"
	batchuc "github.com/kailas-cloud/esmemory/internal/usecase/batch"
	embeddinguc "github.com/kailas-cloud/esmemory/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/esmemory/internal/usecase/health"
	memoryuc "github.com/kailas-cloud/esmemory/internal/usecase/memory"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	memory *memoryuc.Service
	batch  *batchuc.Service
	health *healthuc.Service
	closer []func()
}

// loadApp reads the config for env and builds the logger.
func loadApp(env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
	_ = a.logger.Sync()
}

// wire connects the search engine and cache and assembles the services.
func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	store, err := newStore(&cfg)
	if err != nil {
		return fmt.Errorf("create search engine store: %w", err)
	}
	a.closer = append(a.closer, store.Close)

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		return fmt.Errorf("search engine not ready: %w", err)
	}
	logger.Info("Connected to search engine", zap.String("driver", cfg.Database.Driver))

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMemoryMetrics()

	// Pass nil interface (not typed nil pointer!) when the cache is off.
	var cache *dbRedis.Store
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled && len(cfg.Cache.Addrs) > 0 {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		a.closer = append(a.closer, cache.Close)
		cachePinger = cache
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	embedder := buildEmbedder(&cfg, cache, logger)

	repo := memoryrepo.New(store, repoOptions(&cfg))
	a.memory = memoryuc.New(repo, embedder, indexname.New(cfg.Elasticsearch.IndexPrefix), memoryuc.Config{
		VectorSize:       cfg.Elasticsearch.VectorSize,
		StrictVectorSize: cfg.Elasticsearch.StrictVectorSize,
		MinRelevanceMode: memoryuc.RelevanceMode(cfg.Search.MinRelevanceMode),
		DefaultLimit:     cfg.Search.DefaultLimit,
	})
	a.batch = batchuc.New(a.memory)
	a.health = healthuc.New(store, cachePinger, newEmbeddingHealthChecker(embedder))
	return nil
}

func newStore(cfg *config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return memdb.NewStore(), nil
	case config.DriverElasticsearch:
		s, err := elastic.NewStore(elastic.Config{
			Addresses:              []string{cfg.Elasticsearch.Endpoint},
			Username:               cfg.Elasticsearch.Username,
			Password:               cfg.Elasticsearch.Password,
			CertificateFingerprint: cfg.Elasticsearch.CertificateFingerprint,
			Refresh:                cfg.Elasticsearch.Refresh,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q: %w", cfg.Database.Driver, domain.ErrConfiguration)
	}
}

func repoOptions(cfg *config.Config) memoryrepo.Options {
	opts := memoryrepo.DefaultOptions()
	opts.Shards = cfg.Elasticsearch.Shards
	if cfg.Elasticsearch.Replicas != nil {
		opts.Replicas = *cfg.Elasticsearch.Replicas
	}
	opts.TagValue = memoryrepo.TagValueType(cfg.Elasticsearch.TagValueType)
	opts.WriteMode = memoryrepo.WriteMode(cfg.Elasticsearch.WriteMode)
	opts.CandidatePoolExtra = cfg.Search.CandidatePoolExtra
	return opts
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg *config.Config, cache *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache.Enabled {
		opts := embcache.Options{
			Model:     ec.Model,
			TTL:       cfg.CacheTTL(),
			LocalSize: cfg.Cache.LocalSize,
		}
		if cache != nil {
			embedder = embcache.New(base, cache, opts, metrics.EmbeddingCacheTotal, logger)
		} else {
			embedder = embcache.New(base, nil, opts, metrics.EmbeddingCacheTotal, logger)
		}
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	// outermost, so the cache key includes the instruction
	if ec.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}
	return embedder
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
