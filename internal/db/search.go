package db

import "encoding/json"

// Query is a query DSL clause, serialized verbatim into the request body.
type Query map[string]any

// MatchAll matches every document.
func MatchAll() Query {
	return Query{"match_all": map[string]any{}}
}

// Term matches documents whose field equals value exactly.
func Term(field string, value any) Query {
	return Query{"term": map[string]any{field: value}}
}

// Terms matches documents whose field equals any of values.
func Terms(field string, values ...string) Query {
	return Query{"terms": map[string]any{field: values}}
}

// Exists matches documents that carry a value for field.
func Exists(field string) Query {
	return Query{"exists": map[string]any{"field": field}}
}

// Bool requires every must clause to match.
func Bool(must ...Query) Query {
	return Query{"bool": map[string]any{"must": must}}
}

// Nested evaluates q against each object of the nested field at path;
// a document matches when one object satisfies q as a whole.
func Nested(path string, q Query) Query {
	return Query{"nested": map[string]any{"path": path, "query": q}}
}

// KNN is an approximate nearest-neighbor clause.
type KNN struct {
	Field         string    `json:"field"`
	QueryVector   []float32 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
	Filter        Query     `json:"filter,omitempty"`
	// Similarity drops hits below this raw vector similarity when set.
	Similarity *float64 `json:"similarity,omitempty"`
}

// SearchRequest is the input for Search. Query and KNN may be combined;
// with neither set the engine matches all documents.
type SearchRequest struct {
	Index          string
	Query          Query
	KNN            *KNN
	Size           int
	SourceExcludes []string
}

type sourceFilter struct {
	Excludes []string `json:"excludes"`
}

type searchBody struct {
	Query  Query         `json:"query,omitempty"`
	KNN    *KNN          `json:"knn,omitempty"`
	Size   int           `json:"size"`
	Source *sourceFilter `json:"_source,omitempty"`
}

// Body renders the search request body.
func (r *SearchRequest) Body() ([]byte, error) {
	body := searchBody{Query: r.Query, KNN: r.KNN, Size: r.Size}
	if len(r.SourceExcludes) > 0 {
		body.Source = &sourceFilter{Excludes: r.SourceExcludes}
	}
	return json.Marshal(body)
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Hit is a single document returned by a search, in rank order.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}
