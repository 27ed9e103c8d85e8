package esmemory

import (
	"context"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

// Errors returned by Client operations. Match them with errors.Is.
var (
	ErrInvalidIndexName       = domain.ErrInvalidIndexName
	ErrInvalidRecord          = domain.ErrInvalidRecord
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrIndexNotFound          = domain.ErrIndexNotFound
	ErrRecordNotFound         = domain.ErrRecordNotFound
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrConfiguration          = domain.ErrConfiguration
	ErrResultConsumed         = domain.ErrResultConsumed
)

// Record is a memory entry: a caller-chosen id, its embedding, filterable tags
// and an opaque payload.
type Record struct {
	ID     string
	Vector []float32
	// Tags maps a key to its values. A key with no values is a presence tag.
	Tags    map[string][]string
	Payload map[string]any
}

// ScoredRecord is a similarity hit. Score is the relevance in [0, 1].
type ScoredRecord struct {
	Record Record
	Score  float64
}

// Filter requires, for every key, a tag with one of the listed values.
// A key with no values only requires the tag to be present.
// Several filters passed together must all hold.
type Filter map[string][]string

// CreateResult tells whether CreateIndex created the index.
type CreateResult = domain.CreateResult

// CreateIndex outcomes.
const (
	IndexCreated = domain.IndexCreated
	IndexExists  = domain.IndexExists
)

// SimilarOptions configures GetSimilarList.
type SimilarOptions struct {
	Filters        []Filter
	MinRelevance   float64 // 0 keeps every hit
	Limit          int     // 0 uses the client default
	WithEmbeddings bool
}

// ListOptions configures GetList.
type ListOptions struct {
	Filters        []Filter
	Limit          int
	WithEmbeddings bool
}

// BatchResult is the outcome for one record of UpsertBatch or DeleteBatch.
type BatchResult struct {
	ID  string
	Err error // nil on success
}

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is the vector for a text plus the tokens it consumed.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}
