// Package memdb is an in-process engine implementing db.Store.
//
// It evaluates the query subset the memory repository emits (match_all, bool
// must/filter/must_not, term, terms, exists, nested) and exact cosine k-NN with
// engine-compatible scores. String fields are compared exactly, as keyword
// fields are. Writes are visible immediately, so Refresh is a no-op.
package memdb

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type index struct {
	def   db.IndexDefinition
	docs  map[string]map[string]any
	order []string // insertion order, for stable listing
}

// Store is a concurrency-safe in-memory engine.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

// NewStore creates an empty engine.
func NewStore() *Store {
	return &Store{indexes: make(map[string]*index)}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// IndexExists reports whether the index was created.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// CreateIndex registers a new index; ErrIndexExists when the name is taken.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = &index{def: *def, docs: make(map[string]map[string]any)}
	return nil
}

// DropIndex removes an index and its documents.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// ListIndexes returns index names sorted.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.indexes)), nil
}

// Refresh only checks that the index exists.
func (s *Store) Refresh(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	return nil
}

// IndexDocument inserts or replaces a document.
func (s *Store) IndexDocument(ctx context.Context, name, id string, body []byte) (string, error) {
	return s.write(ctx, db.OpIndex, name, id, body, false)
}

// UpsertDocument merges body into the stored document, creating it when absent.
func (s *Store) UpsertDocument(ctx context.Context, name, id string, body []byte) (string, error) {
	return s.write(ctx, db.OpUpdate, name, id, body, true)
}

func (s *Store) write(ctx context.Context, op, name, id string, body []byte, merge bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		return "", &db.Error{Op: op, Err: fmt.Errorf("document id is required")}
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &db.Error{Op: op, Err: fmt.Errorf("parse document: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return "", db.ErrIndexNotFound
	}

	prev, exists := idx.docs[id]
	if merge && exists {
		doc = mergeObjects(cloneObject(prev), doc)
	}
	if err := checkVectors(idx.def.Mapping.Properties, doc); err != nil {
		return "", &db.Error{Op: op, Err: err}
	}

	if !exists {
		idx.order = append(idx.order, id)
	}
	idx.docs[id] = doc
	return id, nil
}

// DeleteDocument removes a document by id.
func (s *Store) DeleteDocument(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	if _, ok := idx.docs[id]; !ok {
		return db.ErrDocumentNotFound
	}
	delete(idx.docs, id)
	idx.order = slices.DeleteFunc(idx.order, func(v string) bool { return v == id })
	return nil
}

func checkVectors(props map[string]db.Property, doc map[string]any) error {
	for field, p := range props {
		if p.Type != db.FieldDenseVector {
			continue
		}
		raw, ok := doc[field]
		if !ok || raw == nil {
			continue
		}
		vec, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("field [%s] must be an array of numbers", field)
		}
		if len(vec) != p.Dims {
			return fmt.Errorf("the [dims] property of field [%s] is %d but the document has %d", field, p.Dims, len(vec))
		}
	}
	return nil
}

func mergeObjects(dst, src map[string]any) map[string]any {
	for k, v := range src {
		sv, srcObj := v.(map[string]any)
		dv, dstObj := dst[k].(map[string]any)
		if srcObj && dstObj {
			dst[k] = mergeObjects(dv, sv)
			continue
		}
		dst[k] = v
	}
	return dst
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if obj, ok := v.(map[string]any); ok {
			out[k] = cloneObject(obj)
			continue
		}
		out[k] = v
	}
	return out
}
