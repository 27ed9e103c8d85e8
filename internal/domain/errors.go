package domain

import "errors"

var (
	// ErrInvalidIndexName signals a logical index name that cannot be mapped to a physical one.
	ErrInvalidIndexName = errors.New("invalid index name")
	// ErrInvalidRecord signals a malformed record, identifier or tag set.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrConfiguration signals missing or invalid connector configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexNotFound signals an operation against an index that does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrRecordNotFound signals an operation against a record that does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidQuery signals malformed search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrResultConsumed signals a second iteration over a single-use result sequence.
	ErrResultConsumed = errors.New("result sequence already consumed")
)
