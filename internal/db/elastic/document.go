package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmemory/internal/db"
)

type writeResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

// IndexDocument inserts or replaces the document stored under id.
func (s *Store) IndexDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	opts := []func(*esapi.IndexRequest){
		s.es.Index.WithDocumentID(id),
		s.es.Index.WithContext(ctx),
	}
	if s.refresh != RefreshNone {
		opts = append(opts, s.es.Index.WithRefresh(s.refresh))
	}

	res, err := s.es.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return "", s.fail(ctx, db.OpIndex, err)
	}
	defer closeBody(res)

	return decodeWrite(res, db.OpIndex, id)
}

// UpsertDocument merges body into the stored document via doc_as_upsert.
func (s *Store) UpsertDocument(ctx context.Context, index, id string, body []byte) (string, error) {
	payload, err := json.Marshal(struct {
		Doc         json.RawMessage `json:"doc"`
		DocAsUpsert bool            `json:"doc_as_upsert"`
	}{Doc: body, DocAsUpsert: true})
	if err != nil {
		return "", fmt.Errorf("encode update: %w", err)
	}

	opts := []func(*esapi.UpdateRequest){s.es.Update.WithContext(ctx)}
	if s.refresh != RefreshNone {
		opts = append(opts, s.es.Update.WithRefresh(s.refresh))
	}

	res, err := s.es.Update(index, id, bytes.NewReader(payload), opts...)
	if err != nil {
		return "", s.fail(ctx, db.OpUpdate, err)
	}
	defer closeBody(res)

	return decodeWrite(res, db.OpUpdate, id)
}

// DeleteDocument removes the document stored under id.
func (s *Store) DeleteDocument(ctx context.Context, index, id string) error {
	opts := []func(*esapi.DeleteRequest){s.es.Delete.WithContext(ctx)}
	if s.refresh != RefreshNone {
		opts = append(opts, s.es.Delete.WithRefresh(s.refresh))
	}

	res, err := s.es.Delete(index, id, opts...)
	if err != nil {
		return s.fail(ctx, db.OpDelete, err)
	}
	defer closeBody(res)

	if !res.IsError() {
		return nil
	}
	apiErr := parseError(res)
	switch {
	case apiErr.Type == errTypeIndexNotFound:
		return db.ErrIndexNotFound
	case res.StatusCode == http.StatusNotFound:
		return db.ErrDocumentNotFound
	default:
		return &db.Error{Op: db.OpDelete, Err: apiErr}
	}
}

func decodeWrite(res *esapi.Response, op, id string) (string, error) {
	if res.IsError() {
		apiErr := parseError(res)
		if apiErr.Type == errTypeIndexNotFound {
			return "", db.ErrIndexNotFound
		}
		return "", &db.Error{Op: op, Err: apiErr}
	}

	var wr writeResponse
	if err := json.NewDecoder(res.Body).Decode(&wr); err != nil {
		return "", &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if wr.ID == "" {
		return id, nil
	}
	return wr.ID, nil
}
