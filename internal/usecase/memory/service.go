package memory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/indexname"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
	"github.com/kailas-cloud/esmemory/internal/logger"
	"github.com/kailas-cloud/esmemory/internal/metrics"
)

// MaxLimit caps the number of results of a single search or list.
const MaxLimit = 10000

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 10

// RelevanceMode selects where the minimum relevance threshold is enforced.
type RelevanceMode string

const (
	// RelevanceClient drops low-scoring hits after the search.
	RelevanceClient RelevanceMode = "client"
	// RelevanceEngine pushes the threshold into the k-NN clause.
	RelevanceEngine RelevanceMode = "engine"
)

// Operation names used in logs and metrics.
const (
	opCreateIndex = "create_index"
	opDeleteIndex = "delete_index"
	opGetIndexes  = "get_indexes"
	opUpsert      = "upsert"
	opDelete      = "delete"
	opSimilar     = "get_similar_list"
	opList        = "get_list"
)

// Config tunes the connector facade.
type Config struct {
	VectorSize       int // dims for CreateIndex calls without an explicit size
	StrictVectorSize bool
	MinRelevanceMode RelevanceMode
	DefaultLimit     int
}

// SimilarRequest is the input of GetSimilarList.
type SimilarRequest struct {
	Text           string
	Filters        []record.Filter
	MinRelevance   float64 // in [0, 1]; 0 keeps every hit
	Limit          int
	WithEmbeddings bool
}

// ListRequest is the input of GetList.
type ListRequest struct {
	Filters        []record.Filter
	Limit          int
	WithEmbeddings bool
}

// Service is the memory connector facade: it maps logical index names,
// vectorizes queries and delegates storage to the repository.
type Service struct {
	repo  Repository
	embed Embedder
	names indexname.Codec
	cfg   Config
}

// New creates a memory service. Zero config values fall back to package defaults.
func New(repo Repository, embed Embedder, names indexname.Codec, cfg Config) *Service {
	if cfg.VectorSize <= 0 {
		cfg.VectorSize = domain.DefaultVectorSize
	}
	if cfg.MinRelevanceMode == "" {
		cfg.MinRelevanceMode = RelevanceClient
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	return &Service{repo: repo, embed: embed, names: names, cfg: cfg}
}

// IndexName returns the physical name for a logical index name.
func (s *Service) IndexName(name string) (string, error) {
	return s.names.Normalize(name) //nolint:wrapcheck // already carries the name and rules
}

// CreateIndex creates the index unless it exists. dims <= 0 uses the configured vector size.
func (s *Service) CreateIndex(ctx context.Context, name string, dims int) (res domain.CreateResult, err error) {
	started := time.Now()
	defer func() { observe(opCreateIndex, started, err) }()

	physical, err := s.names.Normalize(name)
	if err != nil {
		return 0, err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if dims <= 0 {
		dims = s.cfg.VectorSize
	}

	res, err = s.repo.CreateIndex(ctx, physical, dims)
	if err != nil {
		return 0, fmt.Errorf("create index: %w", err)
	}
	logger.FromContext(ctx).Debug("index "+res.String(),
		zap.String("index", physical), zap.Int("dims", dims))
	return res, nil
}

// DeleteIndex drops the index. A missing index is not an error.
func (s *Service) DeleteIndex(ctx context.Context, name string) (err error) {
	started := time.Now()
	defer func() { observe(opDeleteIndex, started, err) }()

	physical, err := s.names.Normalize(name)
	if err != nil {
		return err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if err = s.repo.DeleteIndex(ctx, physical); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			logger.FromContext(ctx).Debug("index not found", zap.String("index", physical))
			return nil
		}
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}

// GetIndexes returns the physical names of indexes under the configured prefix, sorted.
func (s *Service) GetIndexes(ctx context.Context) (names []string, err error) {
	started := time.Now()
	defer func() { observe(opGetIndexes, started, err) }()

	all, err := s.repo.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("get indexes: %w", err)
	}
	prefix := s.names.Prefix()
	names = make([]string, 0, len(all))
	for _, n := range all {
		// system and hidden indexes
		if strings.HasPrefix(n, ".") || !strings.HasPrefix(n, prefix) {
			continue
		}
		names = append(names, n)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Upsert inserts or replaces the record and returns its id.
func (s *Service) Upsert(ctx context.Context, index string, rec *record.Record) (id string, err error) {
	started := time.Now()
	defer func() { observe(opUpsert, started, err) }()

	physical, err := s.names.Normalize(index)
	if err != nil {
		return "", err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if rec == nil {
		return "", fmt.Errorf("record is required: %w", domain.ErrInvalidRecord)
	}
	if s.cfg.StrictVectorSize {
		if err = rec.CheckVectorSize(s.cfg.VectorSize); err != nil {
			return "", err //nolint:wrapcheck // carries record id and sizes
		}
	}

	id, err = s.repo.Upsert(ctx, physical, rec)
	if err != nil {
		return "", fmt.Errorf("upsert: %w", err)
	}
	logger.FromContext(ctx).Debug("record upserted",
		zap.String("index", physical), zap.String("id", id), zap.Int("tags", rec.Tags.Len()))
	return id, nil
}

// Delete removes the record. Missing records and indexes are not errors.
func (s *Service) Delete(ctx context.Context, index, id string) (err error) {
	started := time.Now()
	defer func() { observe(opDelete, started, err) }()

	physical, err := s.names.Normalize(index)
	if err != nil {
		return err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if err = s.repo.Delete(ctx, physical, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, domain.ErrIndexNotFound) {
			logger.FromContext(ctx).Debug("record not found",
				zap.String("index", physical), zap.String("id", id))
			return nil
		}
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// GetSimilarList embeds req.Text and returns the nearest records matching the filters,
// best first, with relevance >= req.MinRelevance. The returned sequence is single-use.
func (s *Service) GetSimilarList(
	ctx context.Context, index string, req *SimilarRequest,
) (seq iter.Seq2[record.Scored, error], err error) {
	started := time.Now()
	defer func() { observe(opSimilar, started, err) }()

	physical, err := s.names.Normalize(index)
	if err != nil {
		return nil, err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if req == nil {
		return nil, fmt.Errorf("similarity request is required: %w", domain.ErrInvalidQuery)
	}
	if req.MinRelevance < 0 || req.MinRelevance > 1 {
		return nil, fmt.Errorf("min relevance %v out of [0, 1]: %w", req.MinRelevance, domain.ErrInvalidQuery)
	}
	limit := s.limit(req.Limit)

	embResult, err := s.embed.Embed(ctx, req.Text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if len(embResult.Embedding) == 0 {
		return nil, fmt.Errorf("vectorize query: empty embedding: %w", domain.ErrEmbeddingProviderError)
	}
	domain.UsageFromContext(ctx).Record(embResult)

	q := &record.SimilarQuery{
		Index:          physical,
		Vector:         embResult.Embedding,
		Filters:        req.Filters,
		Limit:          limit,
		WithEmbeddings: req.WithEmbeddings,
	}
	clientSide := req.MinRelevance > 0
	if clientSide && s.cfg.MinRelevanceMode == RelevanceEngine {
		// relevance is (1+cos)/2, the engine threshold is on raw cosine
		sim := 2*req.MinRelevance - 1
		q.MinSimilarity = &sim
		clientSide = false
	}

	log := logger.FromContext(ctx).With(zap.String("index", physical))
	log.Debug("similarity search",
		zap.Int("limit", limit),
		zap.Float64("min_relevance", req.MinRelevance),
		zap.String("filters", record.FiltersDebugString(req.Filters)))

	hits, err := s.repo.Similar(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	minRelevance := req.MinRelevance
	return once(func(yield func(record.Scored, error) bool) {
		n := 0
		defer func() { metrics.MemorySearchHits.WithLabelValues(opSimilar).Observe(float64(n)) }()
		for hit, err := range hits {
			if err != nil {
				yield(record.Scored{}, err)
				return
			}
			n++
			if clientSide && hit.Score < minRelevance {
				log.Debug("hit below relevance", zap.String("id", hit.Record.ID), zap.Float64("score", hit.Score))
				continue
			}
			log.Debug("hit", zap.String("id", hit.Record.ID), zap.Float64("score", hit.Score))
			if !yield(hit, nil) {
				return
			}
		}
	}), nil
}

// GetList returns up to req.Limit records matching the filters, without ranking.
// The returned sequence is single-use.
func (s *Service) GetList(
	ctx context.Context, index string, req *ListRequest,
) (seq iter.Seq2[record.Record, error], err error) {
	started := time.Now()
	defer func() { observe(opList, started, err) }()

	physical, err := s.names.Normalize(index)
	if err != nil {
		return nil, err //nolint:wrapcheck // InvalidNameError is self-describing
	}
	if req == nil {
		return nil, fmt.Errorf("list request is required: %w", domain.ErrInvalidQuery)
	}
	limit := s.limit(req.Limit)

	logger.FromContext(ctx).Debug("list",
		zap.String("index", physical),
		zap.Int("limit", limit),
		zap.String("filters", record.FiltersDebugString(req.Filters)))

	recs, err := s.repo.List(ctx, physical, req.Filters, limit, req.WithEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return once(recs), nil
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.cfg.DefaultLimit
	}
	return min(n, MaxLimit)
}

// once makes a sequence single-use: later iterations yield domain.ErrResultConsumed.
func once[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	var used atomic.Bool
	return func(yield func(T, error) bool) {
		if !used.CompareAndSwap(false, true) {
			var zero T
			yield(zero, domain.ErrResultConsumed)
			return
		}
		seq(yield)
	}
}

func observe(op string, started time.Time, err error) {
	metrics.ObserveOperation(op, status(err), started)
}

func status(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusCanceled
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, domain.ErrRecordNotFound):
		return metrics.StatusNotFound
	case errors.Is(err, domain.ErrInvalidIndexName),
		errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrVectorDimMismatch):
		return metrics.StatusInvalid
	default:
		return metrics.StatusError
	}
}
