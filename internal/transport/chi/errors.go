package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/indexname"
	"github.com/kailas-cloud/esmemory/internal/logger"
)

// statusClientClosedRequest is the de-facto status for requests abandoned by the client.
const statusClientClosedRequest = 499

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	invalidNameHandler,
	sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, ErrorCodeIndexNotFound),
	sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, ErrorCodeRecordNotFound),
	sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
	sentinelHandler(domain.ErrInvalidRecord, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
	canceledHandler,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the sentinel text so internal details never leak.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexNotFound,
		domain.ErrRecordNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrInvalidRecord,
		domain.ErrInvalidQuery,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// invalidNameHandler reports every violated naming rule.
func invalidNameHandler(w http.ResponseWriter, err error) bool {
	var nameErr *indexname.InvalidNameError
	if !errors.As(err, &nameErr) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    ErrorCodeInvalidIndexName,
		Message: domain.ErrInvalidIndexName.Error(),
		Details: nameErr.Errors,
	})
	return true
}

func canceledHandler(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, ErrorCodeBadRequest, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrorCodeInternalError, "request timed out")
	default:
		return false
	}
	return true
}

var itemCodes = []struct {
	sentinel error
	code     ErrorCode
}{
	{domain.ErrInvalidIndexName, ErrorCodeInvalidIndexName},
	{domain.ErrIndexNotFound, ErrorCodeIndexNotFound},
	{domain.ErrRecordNotFound, ErrorCodeRecordNotFound},
	{domain.ErrVectorDimMismatch, ErrorCodeVectorDimMismatch},
	{domain.ErrInvalidRecord, ErrorCodeValidationFailed},
	{domain.ErrEmbeddingProviderError, ErrorCodeEmbeddingProviderError},
}

// itemError converts a per-item batch error into its wire form.
func itemError(err error) *ErrorBody {
	for _, c := range itemCodes {
		if errors.Is(err, c.sentinel) {
			return &ErrorBody{Code: c.code, Message: c.sentinel.Error()}
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ErrorBody{Code: ErrorCodeInternalError, Message: "request canceled"}
	}
	return &ErrorBody{Code: ErrorCodeInternalError, Message: "internal error"}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
