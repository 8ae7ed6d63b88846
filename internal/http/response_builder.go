package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
)

// JSONResponseBuilder provides a fluent API for writing JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Send writes the response. A nil body with 204 writes no content.
func (b *JSONResponseBuilder) Send(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps an error kind to its HTTP status and client message.
// Unknown errors become a generic 500; their detail only reaches the logs.
func statusFor(err error) (int, string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "already exists"
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeError converts err to a JSON error body. Server errors are logged with
// their full detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	logger := log.FromContext(r.Context())
	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeInternal)
	case status == http.StatusForbidden:
		logger.WarnContext(r.Context(), "Access denied", log.FieldError, err)
	default:
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}
	NewJSONResponse().Status(status).Body(errorBody{Error: msg}).Send(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Send(w)
}
