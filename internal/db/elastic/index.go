package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// IndexExists probes index existence; 404 means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.es.Indices.Exists([]string{name}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, s.fail(ctx, db.OpIndicesExists, err)
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndicesExists, Err: parseError(res)}
	}
}

// CreateIndex creates an index with the definition's settings and mapping.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	body, err := def.Body()
	if err != nil {
		return fmt.Errorf("encode index definition: %w", err)
	}

	res, err := s.es.Indices.Create(def.Name,
		s.es.Indices.Create.WithBody(bytes.NewReader(body)),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return s.fail(ctx, db.OpIndicesCreate, err)
	}
	defer closeBody(res)

	if res.IsError() {
		apiErr := parseError(res)
		if apiErr.Type == errTypeIndexExists {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpIndicesCreate, Err: apiErr}
	}
	return nil
}

// DropIndex deletes an index by name.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	res, err := s.es.Indices.Delete([]string{name}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return s.fail(ctx, db.OpIndicesDelete, err)
	}
	defer closeBody(res)

	if res.IsError() {
		apiErr := parseError(res)
		if apiErr.Type == errTypeIndexNotFound {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpIndicesDelete, Err: apiErr}
	}
	return nil
}

// ListIndexes returns the sorted names of all open, non-hidden indexes.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	res, err := s.es.Indices.Get([]string{"*"}, s.es.Indices.Get.WithContext(ctx))
	if err != nil {
		return nil, s.fail(ctx, db.OpIndicesGet, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, &db.Error{Op: db.OpIndicesGet, Err: parseError(res)}
	}

	var indices map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, &db.Error{Op: db.OpIndicesGet, Err: fmt.Errorf("decode response: %w", err)}
	}

	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Refresh makes all writes to the index visible to search.
func (s *Store) Refresh(ctx context.Context, name string) error {
	res, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithIndex(name),
		s.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return s.fail(ctx, db.OpIndicesRefresh, err)
	}
	defer closeBody(res)

	if res.IsError() {
		apiErr := parseError(res)
		if apiErr.Type == errTypeIndexNotFound {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpIndicesRefresh, Err: apiErr}
	}
	return nil
}
