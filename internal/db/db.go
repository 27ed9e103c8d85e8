package db

import (
	"context"
	"time"
)

// Store is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	IndexManager
	DocumentStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	// CreateIndex returns ErrIndexExists when the index is already present.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex returns ErrIndexNotFound when the index is absent.
	DropIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context, name string) error
}

// DocumentStore provides single-document write operations.
// Bodies are JSON-encoded documents; returned strings are the engine document ids.
type DocumentStore interface {
	// IndexDocument inserts or fully replaces the document stored under id.
	IndexDocument(ctx context.Context, index, id string, body []byte) (string, error)
	// UpsertDocument merges body into the stored document, creating it when absent.
	UpsertDocument(ctx context.Context, index, id string, body []byte) (string, error)
	// DeleteDocument returns ErrDocumentNotFound or ErrIndexNotFound when there is nothing to delete.
	DeleteDocument(ctx context.Context, index, id string) error
}

// Searcher executes filter and k-NN searches.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
