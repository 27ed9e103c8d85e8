package chi

import (
	"context"
	"iter"

	"github.com/kailas-cloud/esmemory/internal/domain"
	dombatch "github.com/kailas-cloud/esmemory/internal/domain/batch"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
	healthuc "github.com/kailas-cloud/esmemory/internal/usecase/health"
	memoryuc "github.com/kailas-cloud/esmemory/internal/usecase/memory"
)

// MemoryService is the connector facade served over HTTP.
type MemoryService interface {
	IndexName(name string) (string, error)
	CreateIndex(ctx context.Context, name string, dims int) (domain.CreateResult, error)
	DeleteIndex(ctx context.Context, name string) error
	GetIndexes(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, index string, rec *record.Record) (string, error)
	Delete(ctx context.Context, index, id string) error
	GetSimilarList(ctx context.Context, index string, req *memoryuc.SimilarRequest) (iter.Seq2[record.Scored, error], error)
	GetList(ctx context.Context, index string, req *memoryuc.ListRequest) (iter.Seq2[record.Record, error], error)
}

// BatchService writes many records with per-item results.
type BatchService interface {
	Upsert(ctx context.Context, index string, items []record.Record) []dombatch.Result
	Delete(ctx context.Context, index string, ids []string) []dombatch.Result
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
