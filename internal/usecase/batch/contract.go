package batch

import (
	"context"

	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// RecordWriter writes single records. Implemented by the memory service.
type RecordWriter interface {
	Upsert(ctx context.Context, index string, rec *record.Record) (string, error)
	Delete(ctx context.Context, index, id string) error
}
