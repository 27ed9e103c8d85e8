package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Refresh policies for write operations.
const (
	RefreshNone    = ""
	RefreshTrue    = "true"
	RefreshWaitFor = "wait_for"
)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addresses              []string
	Username               string
	Password               string
	CertificateFingerprint string // hex SHA-256 of the CA certificate
	Refresh                string // refresh policy applied to writes
	Transport              http.RoundTripper
}

// Store implements db.Store via the official Elasticsearch client.
type Store struct {
	es        *elasticsearch.Client
	refresh   string
	transport http.RoundTripper
}

// NewStore creates an Elasticsearch store. Retries are disabled: the caller owns retry policy.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("addresses is required")
	}
	switch cfg.Refresh {
	case RefreshNone, RefreshTrue, RefreshWaitFor, "false":
	default:
		return nil, fmt.Errorf("unsupported refresh policy %q", cfg.Refresh)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:              cfg.Addresses,
		Username:               cfg.Username,
		Password:               cfg.Password,
		CertificateFingerprint: cfg.CertificateFingerprint,
		Transport:              cfg.Transport,
		DisableRetry:           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{es: es, refresh: cfg.Refresh, transport: cfg.Transport}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return s.fail(ctx, db.OpPing, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: parseError(res)}
	}
	return nil
}

// Close releases idle connections held by the configured transport.
func (s *Store) Close() {
	if t, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// fail classifies a client error: cancellation wins over transport failure.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &db.Error{Op: op, Err: err}
}

// APIError is a non-2xx response from the engine.
type APIError struct {
	Status int
	Type   string
	Reason string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Engine error types mapped to sentinels.
const (
	errTypeIndexNotFound = "index_not_found_exception"
	errTypeIndexExists   = "resource_already_exists_exception"
)

func parseError(res *esapi.Response) *APIError {
	apiErr := &APIError{Status: res.StatusCode}
	raw, err := io.ReadAll(res.Body)
	if err != nil || len(raw) == 0 {
		apiErr.Reason = http.StatusText(res.StatusCode)
		return apiErr
	}

	var body struct {
		Error  json.RawMessage `json:"error"`
		Result string          `json:"result"`
	}
	if json.Unmarshal(raw, &body) != nil {
		apiErr.Reason = string(raw)
		return apiErr
	}

	var cause struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	switch {
	case len(body.Error) == 0:
		apiErr.Reason = body.Result
	case json.Unmarshal(body.Error, &cause) == nil:
		apiErr.Type, apiErr.Reason = cause.Type, cause.Reason
	default:
		var msg string
		_ = json.Unmarshal(body.Error, &msg)
		apiErr.Reason = msg
	}
	return apiErr
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
