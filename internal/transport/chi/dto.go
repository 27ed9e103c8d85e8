package chi

import (
	"slices"

	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeInvalidIndexName       ErrorCode = "invalid_index_name"
	ErrorCodeIndexNotFound          ErrorCode = "index_not_found"
	ErrorCodeRecordNotFound         ErrorCode = "record_not_found"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
}

// IndexListResponse is returned by GET /indexes.
type IndexListResponse struct {
	Items []string `json:"items"`
}

// CreateIndexResponse is returned by PUT /indexes/{index}.
type CreateIndexResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"` // created, exists
}

// RecordBody is the wire form of a memory record.
type RecordBody struct {
	ID      string              `json:"id,omitempty"`
	Vector  []float32           `json:"vector,omitempty"`
	Tags    map[string][]string `json:"tags,omitempty"`
	Payload map[string]any      `json:"payload,omitempty"`
}

// UpsertResponse is returned by PUT /indexes/{index}/records.
type UpsertResponse struct {
	ID string `json:"id"`
}

// BatchUpsertRequest is the body of POST /indexes/{index}/records/batch.
type BatchUpsertRequest struct {
	Items []RecordBody `json:"items"`
}

// BatchDeleteRequest is the body of POST /indexes/{index}/records/delete.
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchItemResult is the outcome of one record in a batch.
type BatchItemResult struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is an item-level error.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BatchResponse is returned by the batch endpoints.
type BatchResponse struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// FilterSet is one AND-ed tag filter: every key must carry one of its values,
// a key with no values only requires the tag to be present.
type FilterSet map[string][]string

// ListRequest is the body of POST /indexes/{index}/records/list.
type ListRequest struct {
	Filters        []FilterSet `json:"filters,omitempty"`
	Limit          *int        `json:"limit,omitempty"`
	WithEmbeddings *bool       `json:"with_embeddings,omitempty"`
}

// ListResponse is returned by POST /indexes/{index}/records/list.
type ListResponse struct {
	Items []RecordBody `json:"items"`
}

// SearchRequest is the body of POST /indexes/{index}/search.
type SearchRequest struct {
	Query          string      `json:"query"`
	Filters        []FilterSet `json:"filters,omitempty"`
	MinRelevance   *float64    `json:"min_relevance,omitempty"`
	Limit          *int        `json:"limit,omitempty"`
	WithEmbeddings *bool       `json:"with_embeddings,omitempty"`
}

// SearchResultItem is one ranked search hit.
type SearchResultItem struct {
	Record RecordBody `json:"record"`
	Score  float64    `json:"score"`
}

// SearchResponse is returned by POST /indexes/{index}/search.
type SearchResponse struct {
	Items []SearchResultItem `json:"items"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func recordFromBody(b *RecordBody) record.Record {
	return record.Record{
		ID:      b.ID,
		Vector:  b.Vector,
		Tags:    record.TagsFromMap(b.Tags),
		Payload: b.Payload,
	}
}

func recordToBody(r *record.Record) RecordBody {
	body := RecordBody{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	if !r.Tags.IsEmpty() {
		body.Tags = r.Tags.ToMap()
	}
	return body
}

func filtersFromBody(sets []FilterSet) []record.Filter {
	filters := make([]record.Filter, 0, len(sets))
	for _, set := range sets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		f := record.NewFilter()
		for _, k := range keys {
			f.ByTag(k, set[k]...)
		}
		filters = append(filters, *f)
	}
	return filters
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
