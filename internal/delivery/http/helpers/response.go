package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"staffcalendar/internal/domain"
)

// RequestIDHeader carries the request ID to and from clients. Error bodies
// repeat it so a failed call can be found in the logs.
const RequestIDHeader = "X-Request-ID"

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeUnauthorized         = "unauthorized"
	ErrCodeNotFound             = "not_found"
	ErrCodeConflict             = "conflict"
	ErrCodeUnsupportedOperation = "unsupported_operation"
	ErrCodeNoChanges            = "no_changes"
	ErrCodeTooManyRequests      = "too_many_requests"
	ErrCodeInternalError        = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// Details lists individual validation failures when there is more than one
// thing to report.
// swagger:model APIError
type APIError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes an error envelope with the given code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSONErrorDetails(w, statusCode, code, message, nil)
}

// WriteJSONErrorDetails is WriteJSONError with a list of individual failures.
// The request ID set on the response by the logging middleware is copied
// into the body.
func WriteJSONErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details []string) {
	writeEnvelope(w, statusCode, APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: w.Header().Get(RequestIDHeader),
		},
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// DomainError returns the status, code and client message for a calendar
// error. ok is false for anything else, which callers log and report as 500.
func DomainError(err error) (status int, code, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized", true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "event not found", true
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrCodeConflict, domain.ErrConflict.Error(), true
	case errors.Is(err, domain.ErrUnsupportedOperation):
		return http.StatusMethodNotAllowed, ErrCodeUnsupportedOperation, "birthday events are generated from profiles and cannot be modified", true
	case errors.Is(err, domain.ErrNoChanges):
		return http.StatusUnprocessableEntity, ErrCodeNoChanges, "no fields to update", true
	}
	return 0, "", "", false
}
