package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/esmemory/internal/domain"
	dombatch "github.com/kailas-cloud/esmemory/internal/domain/batch"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
	"github.com/kailas-cloud/esmemory/internal/logger"
)

// MaxBatchSize is the maximum number of items per batch request.
const MaxBatchSize = 100

// DefaultConcurrency bounds in-flight engine writes per batch.
const DefaultConcurrency = 8

// Service handles multi-record writes with per-item error reporting.
type Service struct {
	records      RecordWriter
	maxBatchSize int
	concurrency  int
}

// New creates a batch service.
func New(records RecordWriter) *Service {
	return &Service{
		records:      records,
		maxBatchSize: MaxBatchSize,
		concurrency:  DefaultConcurrency,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithConcurrency configures how many records are written at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Upsert inserts or replaces every record. Results keep the input order.
func (s *Service) Upsert(ctx context.Context, index string, items []record.Record) []dombatch.Result {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return s.run(ctx, "upsert", ids, func(ctx context.Context, i int) (string, error) {
		return s.records.Upsert(ctx, index, &items[i])
	})
}

// Delete removes records by id. Missing records count as deleted.
func (s *Service) Delete(ctx context.Context, index string, ids []string) []dombatch.Result {
	return s.run(ctx, "delete", ids, func(ctx context.Context, i int) (string, error) {
		return ids[i], s.records.Delete(ctx, index, ids[i])
	})
}

func (s *Service) run(
	ctx context.Context, op string, ids []string,
	fn func(ctx context.Context, i int) (string, error),
) []dombatch.Result {
	results := make([]dombatch.Result, len(ids))

	if len(ids) > s.maxBatchSize {
		for i, id := range ids {
			results[i] = dombatch.NewError(id,
				fmt.Errorf("batch size %d exceeds %d: %w", len(ids), s.maxBatchSize, domain.ErrInvalidRecord))
		}
		return results
	}

	ctx = logger.With(ctx, zap.String("batch_op", op), zap.Int("batch_size", len(ids)))

	// each slot is written by exactly one goroutine
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = dombatch.NewError(id, err)
				return nil
			}
			got, err := fn(ctx, i)
			if err != nil {
				results[i] = dombatch.NewError(id, fmt.Errorf("%s: %w", op, err))
				return nil
			}
			results[i] = dombatch.NewOK(got)
			return nil
		})
	}
	_ = g.Wait()

	if failed := dombatch.Failed(results); failed > 0 {
		logger.FromContext(ctx).Warn("batch has failed items",
			zap.Int("failed", failed), zap.Error(firstError(results)))
	}
	return results
}

func firstError(results []dombatch.Result) error {
	for _, r := range results {
		if r.Err() != nil {
			return r.Err()
		}
	}
	return nil
}
