package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeUnauthorized         = "unauthorized"
	codeNotFound             = "not_found"
	codeInventoryUnavailable = "inventory_unavailable"
	codeStageTimeout         = "stage_timeout"
	codeCancelled            = "cancelled"
	codeDataCorruption       = "data_corruption"
	codeQuotaExceeded        = "embedding_quota_exceeded"
	codeProviderError        = "provider_error"
	codeRateLimited          = "rate_limited"
	codeInternal             = "internal_error"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings are checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrCancelled, http.StatusRequestTimeout, codeCancelled},
	{domain.ErrStageTimeout, http.StatusGatewayTimeout, codeStageTimeout},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrInvalidIntent, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrInvalidSchema, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrInventoryUnavailable, http.StatusServiceUnavailable, codeInventoryUnavailable},
	{domain.ErrDimensionMismatch, http.StatusInternalServerError, codeDataCorruption},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError},
	{domain.ErrLLMProviderError, http.StatusBadGateway, codeProviderError},
	{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, codeInternal
}

// errorBody builds the response for err. Internal errors get a generic message.
func errorBody(err error) (int, errorResponse) {
	status, code := classify(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	if code == codeInternal {
		resp.Message = "internal error"
	}
	var se *domain.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
		resp.TraceID = se.TraceID
	}
	return status, resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
