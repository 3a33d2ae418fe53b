// Package respond writes JSON responses in the shape every PrintHub endpoint uses.
//
// Success bodies are the encoded value. Error bodies are
//
//	{ "error": "forbidden", "message": "You cannot delete this order." }
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/limits"
)

// ErrorBody is the JSON structure returned for every non-2xx response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody. code defaults to the status text.
func Error(w http.ResponseWriter, status int, code, message string) {
	if code == "" {
		code = codeFor(status)
	}
	JSON(w, status, ErrorBody{Error: code, Message: message})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Decode reads a JSON request body into dst, rejecting unknown fields and
// bodies larger than limits.MaxJSONBody.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	return "server_error"
}
