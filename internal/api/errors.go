// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/cliptrim/internal/media"
	"github.com/ManuGH/cliptrim/internal/store"
	"github.com/ManuGH/cliptrim/internal/stream"
	"github.com/ManuGH/cliptrim/internal/trim"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusForError maps the error taxonomy onto HTTP status codes:
// validation errors 400, missing assets 404, everything the external tool
// breaks 500 with its stderr kept in the message for diagnosability.
func statusForError(err error) int {
	var validation *trim.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, stream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrToolUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorFor maps err through the taxonomy and writes the response.
func writeErrorFor(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}
