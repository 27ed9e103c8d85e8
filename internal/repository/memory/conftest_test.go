package memory

import (
	"context"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn      func(ctx context.Context, name string) error
	listIndexesFn    func(ctx context.Context) ([]string, error)
	indexDocumentFn  func(ctx context.Context, index, id string, body []byte) (string, error)
	upsertDocumentFn func(ctx context.Context, index, id string, body []byte) (string, error)
	deleteDocumentFn func(ctx context.Context, index, id string) error
	searchFn         func(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) ListIndexes(ctx context.Context) ([]string, error) {
	if m.listIndexesFn != nil {
		return m.listIndexesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) IndexDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	if m.indexDocumentFn != nil {
		return m.indexDocumentFn(ctx, index, id, body)
	}
	return id, nil
}

func (m *mockStore) UpsertDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	if m.upsertDocumentFn != nil {
		return m.upsertDocumentFn(ctx, index, id, body)
	}
	return id, nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, index, id string) error {
	if m.deleteDocumentFn != nil {
		return m.deleteDocumentFn(ctx, index, id)
	}
	return nil
}

func (m *mockStore) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &db.SearchResult{}, nil
}
