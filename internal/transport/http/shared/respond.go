// Package shared holds response helpers used by every handler so error
// envelopes stay consistent across the HTTP surface.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "trustgate/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, statusFor(code), map[string]string{
		"error":             string(code),
		"error_description": messageOf(err),
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageOf exposes the message of coded errors only. Internal error chains
// never leak to clients.
func messageOf(err error) string {
	if de, ok := err.(*dErrors.Error); ok {
		return de.Message
	}
	return "internal error"
}
