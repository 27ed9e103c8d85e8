package record

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

// Record is a semantic memory record: an identifier, an embedding, filterable tags
// and an opaque payload used for citations.
type Record struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Tags    Tags           `json:"tags"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Scored pairs a record with the engine relevance score.
type Scored struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// Validate checks the record invariants that do not depend on the index.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record ID is required: %w", domain.ErrInvalidRecord)
	}
	for _, k := range r.Tags.Keys() {
		if k == "" {
			return fmt.Errorf("record %q has a tag with an empty name: %w", r.ID, domain.ErrInvalidRecord)
		}
	}
	return nil
}

// CheckVectorSize verifies the vector length against the index dimensionality.
// An empty vector or a non-positive size skips the check.
func (r *Record) CheckVectorSize(size int) error {
	if size <= 0 || len(r.Vector) == 0 {
		return nil
	}
	if len(r.Vector) != size {
		return fmt.Errorf("record %q: got %d, want %d: %w", r.ID, len(r.Vector), size, domain.ErrVectorDimMismatch)
	}
	return nil
}

// Clone returns a deep copy.
func (r *Record) Clone() Record {
	return Record{
		ID:      r.ID,
		Vector:  slices.Clone(r.Vector),
		Tags:    r.Tags.Clone(),
		Payload: maps.Clone(r.Payload),
	}
}

// SimilarQuery describes a k-NN search over one physical index.
type SimilarQuery struct {
	Index          string
	Vector         []float32
	Filters        []Filter
	Limit          int
	MinSimilarity  *float64 // raw cosine threshold applied by the engine; nil disables it
	WithEmbeddings bool
}
