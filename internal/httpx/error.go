// Package httpx writes content API responses.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

const maxMessageLen = 512

// APIError is a failed content API call. It is written in the same envelope
// as successful reads, {"data": null, "error": {...}}, so content clients
// decode one shape regardless of status.
type APIError struct {
	Status  int
	Name    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Status, e.Message)
}

// With returns a copy of e carrying an extra detail.
func (e *APIError) With(key string, value any) *APIError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func newError(status int, name, format string, args ...any) *APIError {
	return &APIError{Status: status, Name: name, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing content type or entry.
func NotFound(format string, args ...any) *APIError {
	return newError(http.StatusNotFound, "NotFoundError", format, args...)
}

// BadRequest reports a malformed query or body.
func BadRequest(format string, args ...any) *APIError {
	return newError(http.StatusBadRequest, "BadRequestError", format, args...)
}

// Invalid reports a submission whose named fields failed validation. Each
// field is listed under details.errors with its own path.
func Invalid(message string, fields ...string) *APIError {
	e := newError(http.StatusBadRequest, "ValidationError", "%s", message)
	if len(fields) == 0 {
		return e
	}
	problems := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		problems = append(problems, map[string]any{
			"path":    []string{field},
			"message": field + " is invalid",
		})
	}
	return e.With("errors", problems)
}

// ReadOnly rejects writes to content managed outside the API.
func ReadOnly(contentType string) *APIError {
	return newError(http.StatusMethodNotAllowed, "MethodNotAllowedError", "%s is read only", contentType)
}

// TooLarge rejects an upload above limit bytes.
func TooLarge(limit int64) *APIError {
	return newError(http.StatusRequestEntityTooLarge, "PayloadTooLargeError", "upload exceeds the size limit").
		With("limit", limit)
}

// Unavailable reports a failing content store.
func Unavailable(format string, args ...any) *APIError {
	return newError(http.StatusServiceUnavailable, "ServiceUnavailableError", format, args...)
}

// FromStatus builds an error for a bare status, naming it after the status
// text ("Too Many Requests" becomes TooManyRequestsError).
func FromStatus(status int, message string) *APIError {
	text := http.StatusText(status)
	if text == "" {
		status, text = http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
	name := strings.ReplaceAll(strings.ReplaceAll(text, " ", ""), "-", "")
	if !strings.HasSuffix(name, "Error") {
		name += "Error"
	}
	return newError(status, name, "%s", message)
}

// Write renders err in the API envelope. Errors that are not *APIError
// become a generic 500 so internal messages never leak. The chi request id
// is echoed as error.requestId when present.
func Write(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = FromStatus(http.StatusInternalServerError, "internal server error")
	}
	body := map[string]any{
		"status":  apiErr.Status,
		"name":    apiErr.Name,
		"message": oneLine(apiErr.Message),
		"details": map[string]any{},
	}
	if len(apiErr.Details) > 0 {
		body["details"] = apiErr.Details
	}
	if id := oneLine(middleware.GetReqID(ctx)); id != "" {
		body["requestId"] = id
	}
	JSON(w, apiErr.Status, map[string]any{"data": nil, "error": body})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxMessageLen {
		s = s[:maxMessageLen]
	}
	return s
}
