// Package esmemory stores semantic memory records in Elasticsearch indexes
// and retrieves them by vector similarity and tag filters.
package esmemory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/db"
	"github.com/kailas-cloud/esmemory/internal/db/elastic"
	"github.com/kailas-cloud/esmemory/internal/db/memdb"
	"github.com/kailas-cloud/esmemory/internal/domain"
	dombatch "github.com/kailas-cloud/esmemory/internal/domain/batch"
	"github.com/kailas-cloud/esmemory/internal/domain/indexname"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
	logpkg "github.com/kailas-cloud/esmemory/internal/logger"
	memoryrepo "github.com/kailas-cloud/esmemory/internal/repository/memory"
	batchuc "github.com/kailas-cloud/esmemory/internal/usecase/batch"
	memoryuc "github.com/kailas-cloud/esmemory/internal/usecase/memory"
)

const defaultReadinessTimeout = 10 * time.Second

const (
	driverElasticsearch = "elasticsearch"
	driverMemory        = "memory"
)

// memoryUseCase is the connector facade; an interface so tests can substitute it.
type memoryUseCase interface {
	IndexName(name string) (string, error)
	CreateIndex(ctx context.Context, name string, dims int) (domain.CreateResult, error)
	DeleteIndex(ctx context.Context, name string) error
	GetIndexes(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, index string, rec *record.Record) (string, error)
	Delete(ctx context.Context, index, id string) error
	GetSimilarList(ctx context.Context, index string, req *memoryuc.SimilarRequest) (iter.Seq2[record.Scored, error], error)
	GetList(ctx context.Context, index string, req *memoryuc.ListRequest) (iter.Seq2[record.Record, error], error)
}

// Client is the esmemory SDK entry point. It is safe for concurrent use.
type Client struct {
	store  db.Store
	svc    memoryUseCase
	batch  batchUseCase
	logger *zap.Logger
}

type batchUseCase interface {
	Upsert(ctx context.Context, index string, items []record.Record) []dombatch.Result
	Delete(ctx context.Context, index string, ids []string) []dombatch.Result
}

// New creates a Client and waits until the search engine is reachable.
// The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorSize: domain.DefaultVectorSize,
		replicas:   -1,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("esmemory: search engine not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverMemory:
		return memdb.NewStore(), nil
	case driverElasticsearch:
		var errs []error
		if cfg.endpoint == "" {
			errs = append(errs, errors.New("endpoint is required"))
		}
		if cfg.username == "" || cfg.password == "" {
			errs = append(errs, errors.New("username and password are required"))
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("esmemory: %w: %w", domain.ErrConfiguration, errors.Join(errs...))
		}
		s, err := elastic.NewStore(elastic.Config{
			Addresses:              []string{cfg.endpoint},
			Username:               cfg.username,
			Password:               cfg.password,
			CertificateFingerprint: cfg.fingerprint,
			Refresh:                cfg.refresh,
			Transport:              cfg.transport,
		})
		if err != nil {
			return nil, fmt.Errorf("esmemory: %w: %w", domain.ErrConfiguration, err)
		}
		return s, nil
	case "":
		return nil, fmt.Errorf("esmemory: %w: search engine required (use WithElasticsearch or InMemory)",
			domain.ErrConfiguration)
	default:
		return nil, fmt.Errorf("esmemory: %w: unknown driver %q", domain.ErrConfiguration, cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	repoOpts := memoryrepo.DefaultOptions()
	repoOpts.Shards = cfg.shards
	repoOpts.Replicas = cfg.replicas
	repoOpts.TagValue = memoryrepo.TagValueType(cfg.tagValue)
	repoOpts.WriteMode = memoryrepo.WriteMode(cfg.writeMode)
	repoOpts.CandidatePoolExtra = cfg.candidatePoolExtra
	repo := memoryrepo.New(store, repoOpts)

	// Embedder: noop when not set (listing works, similarity search fails)
	var emb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}

	mode := memoryuc.RelevanceClient
	if cfg.relevanceMode == string(memoryuc.RelevanceEngine) {
		mode = memoryuc.RelevanceEngine
	}
	svc := memoryuc.New(repo, emb, indexname.New(cfg.indexPrefix), memoryuc.Config{
		VectorSize:       cfg.vectorSize,
		StrictVectorSize: cfg.strictVectorSize,
		MinRelevanceMode: mode,
		DefaultLimit:     cfg.defaultLimit,
	})

	return &Client{store: store, svc: svc, batch: batchuc.New(svc), logger: cfg.logger}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks search engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return logpkg.ContextWithLogger(ctx, c.logger)
}

// IndexName returns the physical index name for a logical name.
func (c *Client) IndexName(name string) (string, error) {
	return c.svc.IndexName(name) //nolint:wrapcheck // carries every violated rule
}

// CreateIndex creates the index with the given vector size unless it exists.
// dims <= 0 uses the size from WithVectorSize.
func (c *Client) CreateIndex(ctx context.Context, name string, dims int) (CreateResult, error) {
	return c.svc.CreateIndex(c.ctx(ctx), name, dims) //nolint:wrapcheck // already wrapped by the service
}

// DeleteIndex drops the index. Deleting a missing index succeeds.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	return c.svc.DeleteIndex(c.ctx(ctx), name) //nolint:wrapcheck // already wrapped by the service
}

// GetIndexes lists the physical names of indexes under the configured prefix.
func (c *Client) GetIndexes(ctx context.Context) ([]string, error) {
	return c.svc.GetIndexes(c.ctx(ctx)) //nolint:wrapcheck // already wrapped by the service
}

// Upsert inserts or replaces the record and returns its id.
func (c *Client) Upsert(ctx context.Context, index string, rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("upsert: record is required: %w", ErrInvalidRecord)
	}
	r := toDomainRecord(rec)
	return c.svc.Upsert(c.ctx(ctx), index, &r) //nolint:wrapcheck // already wrapped by the service
}

// Delete removes the record with the given id. Missing records succeed.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	return c.svc.Delete(c.ctx(ctx), index, id) //nolint:wrapcheck // already wrapped by the service
}

// UpsertBatch writes every record and reports the outcome per record, in input order.
func (c *Client) UpsertBatch(ctx context.Context, index string, recs []Record) []BatchResult {
	items := make([]record.Record, len(recs))
	for i := range recs {
		items[i] = toDomainRecord(&recs[i])
	}
	return fromBatchResults(c.batch.Upsert(c.ctx(ctx), index, items))
}

// DeleteBatch removes records by id and reports the outcome per id.
func (c *Client) DeleteBatch(ctx context.Context, index string, ids []string) []BatchResult {
	return fromBatchResults(c.batch.Delete(c.ctx(ctx), index, ids))
}

// GetSimilarList embeds text and returns matching records ranked by relevance.
// The sequence can be iterated once.
func (c *Client) GetSimilarList(
	ctx context.Context, index, text string, opts *SimilarOptions,
) (iter.Seq2[ScoredRecord, error], error) {
	if opts == nil {
		opts = &SimilarOptions{}
	}
	seq, err := c.svc.GetSimilarList(c.ctx(ctx), index, &memoryuc.SimilarRequest{
		Text:           text,
		Filters:        toDomainFilters(opts.Filters),
		MinRelevance:   opts.MinRelevance,
		Limit:          opts.Limit,
		WithEmbeddings: opts.WithEmbeddings,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by the service
	}
	return fromScoredSeq(seq), nil
}

// GetList returns records matching the filters, unranked. The sequence can be iterated once.
func (c *Client) GetList(ctx context.Context, index string, opts *ListOptions) (iter.Seq2[Record, error], error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	seq, err := c.svc.GetList(c.ctx(ctx), index, &memoryuc.ListRequest{
		Filters:        toDomainFilters(opts.Filters),
		Limit:          opts.Limit,
		WithEmbeddings: opts.WithEmbeddings,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by the service
	}
	return fromRecordSeq(seq), nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails every call (used when no embedder is configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"esmemory: embedder not configured (use WithEmbedder): %w", domain.ErrEmbeddingProviderError)
}
