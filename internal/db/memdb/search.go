package memdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// Search evaluates the request against a snapshot of the index.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, err := normalize(req.Query)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	var knnFilter any
	if req.KNN != nil {
		if knnFilter, err = normalize(req.KNN.Filter); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
	}

	s.mu.RLock()
	idx, ok := s.indexes[req.Index]
	if !ok {
		s.mu.RUnlock()
		return nil, db.ErrIndexNotFound
	}
	type candidate struct {
		id    string
		doc   map[string]any
		score float64
	}
	var matched []candidate
	for _, id := range idx.order {
		doc := idx.docs[id]
		ok, err := matches(query, doc)
		if err != nil {
			s.mu.RUnlock()
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		if !ok {
			continue
		}
		score := 1.0
		if req.KNN != nil {
			if ok, err = matches(knnFilter, doc); err != nil {
				s.mu.RUnlock()
				return nil, &db.Error{Op: db.OpSearch, Err: err}
			}
			if !ok {
				continue
			}
			cos, ok := cosine(req.KNN.QueryVector, doc[req.KNN.Field])
			if !ok {
				continue
			}
			if req.KNN.Similarity != nil && cos < *req.KNN.Similarity {
				continue
			}
			score = (1 + cos) / 2
		}
		matched = append(matched, candidate{id: id, doc: doc, score: score})
	}
	s.mu.RUnlock()

	if req.KNN != nil {
		slices.SortStableFunc(matched, func(a, b candidate) int {
			switch {
			case a.score > b.score:
				return -1
			case a.score < b.score:
				return 1
			default:
				return 0
			}
		})
		if len(matched) > req.KNN.K {
			matched = matched[:req.KNN.K]
		}
	}

	result := &db.SearchResult{Total: len(matched)}
	if len(matched) > req.Size {
		matched = matched[:max(req.Size, 0)]
	}
	for _, c := range matched {
		src, err := json.Marshal(excludeFields(c.doc, req.SourceExcludes))
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		result.Hits = append(result.Hits, db.Hit{ID: c.id, Score: c.score, Source: src})
	}
	return result, nil
}

// normalize turns a typed query into its decoded JSON form so evaluation only sees
// map[string]any, []any, string, float64 and bool.
func normalize(q db.Query) (any, error) {
	if q == nil {
		return nil, nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return out, nil
}

func matches(q any, doc map[string]any) (bool, error) {
	if q == nil {
		return true, nil
	}
	clause, ok := q.(map[string]any)
	if !ok || len(clause) != 1 {
		return false, fmt.Errorf("query clause must be an object with one key: %v", q)
	}
	for kind, body := range clause {
		switch kind {
		case "match_all":
			return true, nil
		case "bool":
			return matchBool(body, doc)
		case "term":
			return matchTerms(body, doc, false)
		case "terms":
			return matchTerms(body, doc, true)
		case "exists":
			args, _ := body.(map[string]any)
			field, _ := args["field"].(string)
			return len(lookup(doc, field)) > 0, nil
		case "nested":
			return matchNested(body, doc)
		default:
			return false, fmt.Errorf("unsupported query type [%s]", kind)
		}
	}
	return false, nil
}

func matchBool(body any, doc map[string]any) (bool, error) {
	args, ok := body.(map[string]any)
	if !ok {
		return false, fmt.Errorf("bool query must be an object")
	}
	for _, key := range []string{"must", "filter"} {
		for _, q := range asList(args[key]) {
			ok, err := matches(q, doc)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	for _, q := range asList(args["must_not"]) {
		ok, err := matches(q, doc)
		if err != nil || ok {
			return false, err
		}
	}
	return true, nil
}

func matchTerms(body any, doc map[string]any, multi bool) (bool, error) {
	args, ok := body.(map[string]any)
	if !ok || len(args) != 1 {
		return false, fmt.Errorf("term query must name exactly one field")
	}
	for field, want := range args {
		var accepted []any
		switch {
		case multi:
			accepted = asList(want)
		default:
			if obj, ok := want.(map[string]any); ok {
				want = obj["value"]
			}
			accepted = []any{want}
		}
		for _, have := range lookup(doc, field) {
			if slices.Contains(accepted, have) {
				return true, nil
			}
		}
	}
	return false, nil
}

func matchNested(body any, doc map[string]any) (bool, error) {
	args, ok := body.(map[string]any)
	if !ok {
		return false, fmt.Errorf("nested query must be an object")
	}
	path, _ := args["path"].(string)
	if path == "" {
		return false, fmt.Errorf("nested query requires a path")
	}
	for _, obj := range asList(lookupRaw(doc, path)) {
		scoped := map[string]any{}
		setPath(scoped, path, obj)
		ok, err := matches(args["query"], scoped)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// lookup returns the scalar values stored at a dotted field path, flattening arrays.
// A trailing "keyword" segment resolves to its parent, as a keyword sub-field does.
func lookup(doc map[string]any, field string) []any {
	v := lookupRaw(doc, field)
	if v == nil && strings.HasSuffix(field, ".keyword") {
		v = lookupRaw(doc, strings.TrimSuffix(field, ".keyword"))
	}
	var out []any
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case nil:
		case []any:
			for _, e := range t {
				walk(e)
			}
		default:
			out = append(out, t)
		}
	}
	walk(v)
	return out
}

func lookupRaw(doc map[string]any, field string) any {
	var cur any = doc
	for _, part := range strings.Split(field, ".") {
		switch t := cur.(type) {
		case map[string]any:
			cur = t[part]
		case []any:
			var next []any
			for _, e := range t {
				if obj, ok := e.(map[string]any); ok && obj[part] != nil {
					next = append(next, obj[part])
				}
			}
			cur = next
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

func setPath(dst map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next := map[string]any{}
		dst[p] = next
		dst = next
	}
	dst[parts[len(parts)-1]] = v
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func cosine(query []float32, stored any) (float64, bool) {
	vec, ok := stored.([]any)
	if !ok || len(vec) != len(query) || len(query) == 0 {
		return 0, false
	}
	var dot, qn, dn float64
	for i, raw := range vec {
		d, ok := raw.(float64)
		if !ok {
			return 0, false
		}
		q := float64(query[i])
		dot += q * d
		qn += q * q
		dn += d * d
	}
	if qn == 0 || dn == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(qn) * math.Sqrt(dn)), true
}

func excludeFields(doc map[string]any, excludes []string) map[string]any {
	if len(excludes) == 0 {
		return doc
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if !slices.Contains(excludes, k) {
			out[k] = v
		}
	}
	return out
}
