package web

// errors.go centralizes error responses: full detail is logged server-side
// with the request id, clients get a sanitized JSON payload. Duplicate
// imports are a defined outcome (409 with the existing job id), not a
// failure.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avcrew/rackplan/internal/core"
	"github.com/avcrew/rackplan/internal/store"
	"github.com/go-chi/chi/v5/middleware"
)

// conflictResponse is the payload for duplicate-import conflicts.
type conflictResponse struct {
	Error string `json:"error"`
	JobID *int64 `json:"jobId"`
}

// respondCoreError maps core/store errors to HTTP responses. fallback is
// the sanitized message used for unexpected (500) failures.
func (s *Server) respondCoreError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var conflict *core.ConflictError
	var validation *core.ValidationError

	switch {
	case errors.As(err, &conflict):
		logError(r, err, http.StatusConflict)
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error: "This pullsheet has already been imported",
			JobID: conflict.JobID,
		})
	case errors.Is(err, core.ErrInvalidFlexURL):
		s.respondError(w, r, err, http.StatusBadRequest, core.ErrInvalidFlexURL.Error())
	case errors.As(err, &validation):
		s.respondError(w, r, err, http.StatusBadRequest, validation.Msg)
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, r, err, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		s.respondError(w, r, err, http.StatusConflict, "duplicate entry")
	default:
		s.respondError(w, r, err, http.StatusInternalServerError, fallback)
	}
}

// respondError logs the technical error and writes a sanitized JSON error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int, message string) {
	logError(r, err, status)
	writeJSON(w, status, map[string]string{"error": message})
}

func logError(r *http.Request, err error, status int) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// errBadID flags a malformed numeric URL parameter.
var errBadID = errors.New("invalid id parameter")

func errMissingField(name string) error {
	return &core.ValidationError{Msg: name + " is required"}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown garbage
// with a client error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Msg: "invalid JSON body"}
	}
	return nil
}
