package memory

import (
	"context"
	"iter"

	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// Repository defines the storage contract for memory indexes. Names are physical.
type Repository interface {
	CreateIndex(ctx context.Context, name string, dims int) (domain.CreateResult, error)
	DeleteIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, index string, rec *record.Record) (string, error)
	Delete(ctx context.Context, index, id string) error
	Similar(ctx context.Context, q *record.SimilarQuery) (iter.Seq2[record.Scored, error], error)
	List(
		ctx context.Context, index string, filters []record.Filter, limit int, withEmbeddings bool,
	) (iter.Seq2[record.Record, error], error)
}

// Embedder vectorizes search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
