package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/domain"
	dombatch "github.com/kailas-cloud/esmemory/internal/domain/batch"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
	"github.com/kailas-cloud/esmemory/internal/logger"
	healthuc "github.com/kailas-cloud/esmemory/internal/usecase/health"
	memoryuc "github.com/kailas-cloud/esmemory/internal/usecase/memory"
)

// maxBodyBytes bounds request bodies; records carry vectors and payloads.
const maxBodyBytes = 8 << 20

// embeddingTokensHeader reports query embedding tokens on search responses.
const embeddingTokensHeader = "X-Embedding-Tokens"

// Server implements the HTTP handlers over the memory service.
type Server struct {
	memory MemoryService
	batch  BatchService
	health HealthService
}

// NewServer creates a new HTTP server. batch and health may be nil.
func NewServer(memory MemoryService, batch BatchService, health HealthService) *Server {
	return &Server{memory: memory, batch: batch, health: health}
}

// --- Indexes ---

// ListIndexes handles GET /indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	names, err := s.memory.GetIndexes(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, IndexListResponse{Items: names})
}

// CreateIndex handles PUT /indexes/{index}?dims=N.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	var dims *int
	if err := runtime.BindQueryParameter("form", true, false, "dims", r.URL.Query(), &dims); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid dims parameter")
		return
	}
	if dims != nil && *dims <= 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "dims must be positive")
		return
	}

	res, err := s.memory.CreateIndex(r.Context(), index, derefInt(dims))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	physical, _ := s.memory.IndexName(index)

	status := http.StatusCreated
	if res == domain.IndexExists {
		status = http.StatusOK
	}
	writeJSON(w, status, CreateIndexResponse{Name: physical, Status: res.String()})
}

// DeleteIndex handles DELETE /indexes/{index}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.memory.DeleteIndex(r.Context(), chi.URLParam(r, "index")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Records ---

// UpsertRecord handles PUT /indexes/{index}/records.
// A record without id gets a random UUID.
func (s *Server) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	var body RecordBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}

	rec := recordFromBody(&body)
	id, err := s.memory.Upsert(r.Context(), chi.URLParam(r, "index"), &rec)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpsertResponse{ID: id})
}

// DeleteRecord handles DELETE /indexes/{index}/records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := bindTrailingPathParam(r, "id", &id); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid record id")
		return
	}
	if err := s.memory.Delete(r.Context(), chi.URLParam(r, "index"), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRecords handles POST /indexes/{index}/records/list.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	var body ListRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Limit != nil && *body.Limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must not be negative")
		return
	}

	seq, err := s.memory.GetList(r.Context(), chi.URLParam(r, "index"), &memoryuc.ListRequest{
		Filters:        filtersFromBody(body.Filters),
		Limit:          derefInt(body.Limit),
		WithEmbeddings: derefBool(body.WithEmbeddings),
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	// results are collected before writing so a mid-stream error still gets a proper status
	items := make([]RecordBody, 0)
	for rec, err := range seq {
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		items = append(items, recordToBody(&rec))
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items})
}

// BatchUpsert handles POST /indexes/{index}/records/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	var body BatchUpsertRequest
	if !decodeBody(w, r, &body) {
		return
	}
	items := make([]record.Record, len(body.Items))
	for i := range body.Items {
		if body.Items[i].ID == "" {
			body.Items[i].ID = uuid.NewString()
		}
		items[i] = recordFromBody(&body.Items[i])
	}
	writeBatch(w, s.batch.Upsert(r.Context(), chi.URLParam(r, "index"), items))
}

// BatchDelete handles POST /indexes/{index}/records/delete.
func (s *Server) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var body BatchDeleteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	writeBatch(w, s.batch.Delete(r.Context(), chi.URLParam(r, "index"), body.IDs))
}

func writeBatch(w http.ResponseWriter, results []dombatch.Result) {
	resp := BatchResponse{Items: make([]BatchItemResult, len(results))}
	for i, res := range results {
		item := BatchItemResult{ID: res.ID(), Status: string(res.Status())}
		if res.OK() {
			resp.Succeeded++
		} else {
			item.Error = itemError(res.Err())
			resp.Failed++
		}
		resp.Items[i] = item
	}
	// 200 even with failed items; clients inspect per-item status
	writeJSON(w, http.StatusOK, resp)
}

// --- Search ---

// Search handles POST /indexes/{index}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "query is required")
		return
	}
	if body.Limit != nil && *body.Limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must not be negative")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	seq, err := s.memory.GetSimilarList(ctx, chi.URLParam(r, "index"), &memoryuc.SimilarRequest{
		Text:           body.Query,
		Filters:        filtersFromBody(body.Filters),
		MinRelevance:   derefFloat(body.MinRelevance),
		Limit:          derefInt(body.Limit),
		WithEmbeddings: derefBool(body.WithEmbeddings),
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, 0)
	for hit, err := range seq {
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		items = append(items, SearchResultItem{Record: recordToBody(&hit.Record), Score: hit.Score})
	}

	setEmbeddingHeaders(w, usage)
	logger.FromContext(r.Context()).Debug("search served",
		zap.Int("hits", len(items)), zap.Int("embedding_tokens", usage.TotalTokens))
	writeJSON(w, http.StatusOK, SearchResponse{Items: items})
}

// --- Health ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	report := s.health.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set(embeddingTokensHeader, strconv.Itoa(usage.TotalTokens))
	}
}

// decodeBody reads a JSON body into dst. Writes a 400 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			msg = "request body too large"
		case errors.Is(err, io.EOF):
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, msg)
		return false
	}
	return true
}

// bindTrailingPathParam decodes the last path segment exactly once. chi hands out
// params already decoded unless RawPath is set, so the escaped path is the only
// source that keeps ids containing '%' intact.
func bindTrailingPathParam(r *http.Request, name string, dest *string) error {
	escaped := r.URL.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	err := runtime.BindStyledParameterWithOptions("simple", name, segment, dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	return nil
}
