package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/kailas-cloud/esmemory/internal/db"
	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// DefaultCandidatePoolExtra is the number of k-NN candidates fetched beyond k.
const DefaultCandidatePoolExtra = 100

// WriteMode selects the engine call used by Upsert.
type WriteMode string

const (
	// WriteUpdate sends a partial update with doc_as_upsert.
	WriteUpdate WriteMode = "update"
	// WriteIndex sends a full index (insert-or-replace) request.
	WriteIndex WriteMode = "index"
)

// Options tune the physical layout and query shape of memory indexes.
type Options struct {
	Shards             int // 0 keeps the engine default
	Replicas           int // negative keeps the engine default
	TagValue           TagValueType
	CandidatePoolExtra int
	WriteMode          WriteMode
}

// DefaultOptions returns engine-default settings with keyword tag values.
func DefaultOptions() Options {
	return Options{
		Replicas:           -1,
		TagValue:           TagValueKeyword,
		CandidatePoolExtra: DefaultCandidatePoolExtra,
		WriteMode:          WriteUpdate,
	}
}

// store is the consumer interface for memory indexes (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	IndexDocument(ctx context.Context, index, id string, body []byte) (string, error)
	UpsertDocument(ctx context.Context, index, id string, body []byte) (string, error)
	DeleteDocument(ctx context.Context, index, id string) error
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
}

// Repo stores records in physical memory indexes. Index names are expected
// to be normalized already.
type Repo struct {
	store store
	opts  Options
}

// New creates a memory repository. Empty TagValue and WriteMode and a non-positive
// CandidatePoolExtra fall back to DefaultOptions.
func New(s store, opts Options) *Repo {
	def := DefaultOptions()
	if opts.TagValue == "" {
		opts.TagValue = def.TagValue
	}
	if opts.CandidatePoolExtra <= 0 {
		opts.CandidatePoolExtra = def.CandidatePoolExtra
	}
	if opts.WriteMode == "" {
		opts.WriteMode = def.WriteMode
	}
	return &Repo{store: s, opts: opts}
}

// CreateIndex creates the index unless it exists. The mapping is never re-applied.
func (r *Repo) CreateIndex(ctx context.Context, name string, dims int) (domain.CreateResult, error) {
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("check index %s: %w", name, translate(err))
	}
	if exists {
		return domain.IndexExists, nil
	}

	def, err := BuildMapping(name, dims, r.opts)
	if err != nil {
		return 0, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// lost a creation race
		if errors.Is(err, db.ErrIndexExists) {
			return domain.IndexExists, nil
		}
		return 0, fmt.Errorf("create index %s: %w", name, translate(err))
	}
	return domain.IndexCreated, nil
}

// DeleteIndex drops the index. A missing index matches both db.ErrIndexNotFound and domain.ErrIndexNotFound.
func (r *Repo) DeleteIndex(ctx context.Context, name string) error {
	if err := r.store.DropIndex(ctx, name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, translate(err))
	}
	return nil
}

// ListIndexes returns all physical index names.
func (r *Repo) ListIndexes(ctx context.Context) ([]string, error) {
	names, err := r.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return names, nil
}

// Upsert writes the record keyed by its encoded id and returns the caller's id.
func (r *Repo) Upsert(ctx context.Context, index string, rec *record.Record) (string, error) {
	doc, err := FromRecord(rec)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal record %q: %w", rec.ID, err)
	}

	var stored string
	if r.opts.WriteMode == WriteIndex {
		stored, err = r.store.IndexDocument(ctx, index, doc.ID, body)
	} else {
		stored, err = r.store.UpsertDocument(ctx, index, doc.ID, body)
	}
	if err != nil {
		return "", fmt.Errorf("upsert %s/%q: %w", index, rec.ID, translate(err))
	}
	return DecodeID(stored)
}

// Delete removes the record with the given caller id.
// Missing records and indexes surface as domain.ErrRecordNotFound / domain.ErrIndexNotFound,
// still wrapping the engine sentinel.
func (r *Repo) Delete(ctx context.Context, index, id string) error {
	if id == "" {
		return fmt.Errorf("record ID is required: %w", domain.ErrInvalidRecord)
	}
	if err := r.store.DeleteDocument(ctx, index, EncodeID(id)); err != nil {
		return fmt.Errorf("delete %s/%q: %w", index, id, translate(err))
	}
	return nil
}

// Similar runs a filtered k-NN search. The search executes eagerly; hits are decoded lazily.
func (r *Repo) Similar(ctx context.Context, q *record.SimilarQuery) (iter.Seq2[record.Scored, error], error) {
	knn := BuildSimilarityQuery(q.Vector, q.Limit, r.opts.CandidatePoolExtra, q.Filters, r.opts.TagValue.ValueField())
	knn.Similarity = q.MinSimilarity

	res, err := r.store.Search(ctx, &db.SearchRequest{
		Index:          q.Index,
		KNN:            knn,
		Size:           q.Limit,
		SourceExcludes: sourceExcludes(q.WithEmbeddings),
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search %s: %w", q.Index, translate(err))
	}
	return decodeHits(res.Hits, q.WithEmbeddings), nil
}

// List returns up to limit records matching the filters, without scoring.
func (r *Repo) List(
	ctx context.Context, index string, filters []record.Filter, limit int, withEmbeddings bool,
) (iter.Seq2[record.Record, error], error) {
	res, err := r.store.Search(ctx, &db.SearchRequest{
		Index:          index,
		Query:          BuildFilterQuery(filters, r.opts.TagValue.ValueField()),
		Size:           limit,
		SourceExcludes: sourceExcludes(withEmbeddings),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", index, translate(err))
	}

	scored := decodeHits(res.Hits, withEmbeddings)
	return func(yield func(record.Record, error) bool) {
		for s, err := range scored {
			if !yield(s.Record, err) {
				return
			}
		}
	}, nil
}

// translate adds the domain not-found sentinels while keeping the engine error in the chain.
func translate(err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	case errors.Is(err, db.ErrDocumentNotFound):
		return fmt.Errorf("%w: %w", domain.ErrRecordNotFound, err)
	default:
		return err
	}
}

func sourceExcludes(withEmbeddings bool) []string {
	if withEmbeddings {
		return nil
	}
	return []string{FieldEmbedding}
}

// decodeHits yields hits in rank order and stops after the first decode error.
func decodeHits(hits []db.Hit, withEmbeddings bool) iter.Seq2[record.Scored, error] {
	return func(yield func(record.Scored, error) bool) {
		for _, h := range hits {
			doc, err := decodeDocument(h.Source)
			if err != nil {
				yield(record.Scored{}, fmt.Errorf("hit %s: %w", h.ID, err))
				return
			}
			if doc.ID == "" {
				doc.ID = h.ID
			}
			rec, err := doc.ToRecord(withEmbeddings)
			if err != nil {
				yield(record.Scored{}, fmt.Errorf("hit %s: %w", h.ID, err))
				return
			}
			if !yield(record.Scored{Record: rec, Score: h.Score}, nil) {
				return
			}
		}
	}
}
