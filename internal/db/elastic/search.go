package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esmemory/internal/db"
)

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search executes a query and/or k-NN search against one index.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	body, err := req.Body()
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithIndex(req.Index),
		s.es.Search.WithBody(bytes.NewReader(body)),
		s.es.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, s.fail(ctx, db.OpSearch, err)
	}
	defer closeBody(res)

	if res.IsError() {
		apiErr := parseError(res)
		if apiErr.Type == errTypeIndexNotFound {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: apiErr}
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &db.SearchResult{
		Total: sr.Hits.Total.Value,
		Hits:  make([]db.Hit, 0, len(sr.Hits.Hits)),
	}
	for _, h := range sr.Hits.Hits {
		hit := db.Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
