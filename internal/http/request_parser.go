package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON object into dst. Unknown fields and
// trailing data are rejected as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Invalid("request body is empty")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return core.Invalid("malformed JSON body")
		case errors.As(err, &typeErr):
			return core.Invalid(fmt.Sprintf("invalid value for field %q", typeErr.Field))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return core.Invalid(strings.TrimPrefix(err.Error(), "json: "))
		case errors.As(err, &maxErr):
			return core.Invalid("request body too large")
		default:
			return core.Invalid("invalid request body")
		}
	}
	if dec.More() {
		return core.Invalid("request body must contain a single JSON object")
	}
	return nil
}

// pathID returns the {id} route parameter.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", core.Invalid("missing id")
	}
	return id, nil
}

// parseOptionalDate accepts "", "dd/mm/yyyy" or "yyyy-mm-dd".
func parseOptionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// parseKindQuery reads ?tipo=; empty means every kind.
func parseKindQuery(r *http.Request) (core.EntryKind, error) {
	v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("tipo")))
	if v == "" {
		return "", nil
	}
	k := core.EntryKind(v)
	if !k.Valid() {
		return "", core.ErrInvalidKind
	}
	return k, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
