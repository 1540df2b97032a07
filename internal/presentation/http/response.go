package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/validate"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads a single JSON object into dst and validates its tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return validate.StructFields(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// pathID parses a positive int64 chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", validate.ErrInvalid, name, raw)
	}
	return id, nil
}

// logServerError records a 5xx cause on the request logger; the response body stays generic.
func logServerError(r *http.Request, err error) {
	logctx.FromOr(r.Context(), observability.NopLogger()).Error("request_failed",
		observability.F("route", routeFromContext(r.Context())),
		observability.Err(err),
	)
}
