package handler

// RESPONSE HELPERS:
// Every handler answers through these functions so the API has exactly two
// body shapes.
//
// SUCCESS:
//   {"success": true, "data": {...}, "message": "Tool retrieved successfully"}
//
// Collections are the exception: they return the page object as is,
//   {"data": [...], "total": 42, "page": 1, "pageSize": 20}
//
// FAILURE:
//   {"success": false, "statusCode": 400, "statusMessage": "Validation Error",
//    "message": "Name is required", "data": {"errors": [{"field": "name", ...}]}}
//
// "data" only appears on validation failures.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/altdirectory/internal/apperror"
)

// Envelope wraps every non-collection success body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Success       bool       `json:"success"`
	StatusCode    int        `json:"statusCode"`
	StatusMessage string     `json:"statusMessage"`
	Message       string     `json:"message"`
	Data          *ErrorData `json:"data,omitempty"`
}

type ErrorData struct {
	Errors []apperror.Violation `json:"errors"`
}

// maxBodyBytes bounds JSON request bodies. Uploads use their own limit.
const maxBodyBytes = 1 << 20

// writeJSON sends a JSON response with the given status code.
//
// Headers and status go out before the body; anything set after the first
// Write is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeData sends the success envelope.
func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// WriteError maps a domain error to its HTTP status and sends the failure
// body. It is exported for the middleware package, which must answer with
// the same shape.
//
// errors.Is walks the whole chain, so a service error wrapped with
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error: never leak SQL or file paths to the client.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			StatusCode:    http.StatusInternalServerError,
			StatusMessage: http.StatusText(http.StatusInternalServerError),
			Message:       "An internal error occurred",
		})
		return
	}

	status := statusFor(appErr)
	resp := ErrorResponse{
		StatusCode:    status,
		StatusMessage: http.StatusText(status),
		Message:       appErr.Message,
	}
	switch {
	case errors.Is(appErr, apperror.ErrValidation):
		resp.StatusMessage = apperror.ErrValidation.Error()
		if len(appErr.Violations) > 0 {
			resp.Data = &ErrorData{Errors: appErr.Violations}
		}
	case errors.Is(appErr, apperror.ErrUpstream):
		slog.Error("upstream failure", slog.String("error", appErr.Message))
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON value from the request body into dst.
// A malformed body is a validation error on the "body" field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "Request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// MethodNotAllowed answers a known path called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		StatusCode:    http.StatusMethodNotAllowed,
		StatusMessage: http.StatusText(http.StatusMethodNotAllowed),
		Message:       "Method Not Allowed",
	})
}

// NotFound answers an unknown path.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		StatusCode:    http.StatusNotFound,
		StatusMessage: http.StatusText(http.StatusNotFound),
		Message:       "Page not found: " + r.URL.Path,
	})
}
