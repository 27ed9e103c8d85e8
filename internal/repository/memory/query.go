package memory

import (
	"github.com/kailas-cloud/esmemory/internal/db"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

// MaxNumCandidates is the engine cap on the k-NN candidate pool.
const MaxNumCandidates = 10000

// BuildFilterQuery turns filter sets into a query. Every key of every set becomes a
// nested clause requiring one tag entry with that name and one of the values, so
// name and value always match the same entry. All clauses are ANDed, across sets too.
// A key without values only requires the tag to be present. No constraints match all.
func BuildFilterQuery(filters []record.Filter, valueField string) db.Query {
	var must []db.Query
	for i := range filters {
		f := &filters[i]
		for _, key := range f.Keys() {
			values := f.Values(key)
			clause := []db.Query{db.Term(FieldTagName, key)}
			if len(values) > 0 {
				clause = append(clause, db.Terms(valueField, values...))
			}
			must = append(must, db.Nested(FieldTags, db.Bool(clause...)))
		}
	}
	if len(must) == 0 {
		return db.MatchAll()
	}
	return db.Bool(must...)
}

// BuildSimilarityQuery wraps the filter query as the pre-filter of a k-NN search
// over the embedding field, over-fetching extra candidates to offset filter pruning.
func BuildSimilarityQuery(vector []float32, k, extra int, filters []record.Filter, valueField string) *db.KNN {
	return &db.KNN{
		Field:         FieldEmbedding,
		QueryVector:   vector,
		K:             k,
		NumCandidates: min(k+max(extra, 0), MaxNumCandidates),
		Filter:        BuildFilterQuery(filters, valueField),
	}
}
