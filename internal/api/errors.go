// Package api provides the HTTP handlers and standardized error handling
// for the discovery service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/univrs/discovery/internal/middleware"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/store"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeUniverseNotFound indicates the universe was not found or inactive.
	ErrCodeUniverseNotFound = "universe_not_found"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeUpstreamUnavailable indicates the backing store is unreachable.
	ErrCodeUpstreamUnavailable = "upstream_unavailable"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
// It writes the appropriate HTTP status code and returns a JSON error body.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The error_code will be automatically logged by the logging middleware
// for all 4xx and 5xx responses if you call SetErrorCode on the context
// and pass the updated context to WriteError.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	// Update the context in the response writer if supported (for logging middleware)
	middleware.UpdateResponseContext(w, ctx)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeNotFound, ErrCodeUniverseNotFound:
		return http.StatusNotFound
	case ErrCodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps a domain error to its error code and writes the
// standard response. Unknown errors become internal_error and are logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := classify(err)
	ctx := middleware.SetErrorCode(r.Context(), code)
	if code == ErrCodeInternal {
		slog.ErrorContext(ctx, "request failed", "error", err)
	}
	WriteError(w, ctx, StatusCodeMapping(code), code, message)
}

func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, query.ErrInvalidFilter):
		return ErrCodeValidation, err.Error()
	case errors.Is(err, store.ErrRequesterNotFound):
		return ErrCodeNotFound, "requester not found"
	case errors.Is(err, store.ErrUniverseNotFound):
		return ErrCodeUniverseNotFound, "universe not found"
	case errors.Is(err, store.ErrUpstreamUnavailable):
		return ErrCodeUpstreamUnavailable, "storage backend unavailable"
	default:
		return ErrCodeInternal, "internal server error"
	}
}

// writeJSON writes a JSON success response with the given status.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
