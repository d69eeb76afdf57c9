// Package apierrors centralizes HTTP error translation for the admin
// REST surface, grounded on the teacher's HandlerWithError decorator.
package apierrors

import (
	"encoding/json"
	"net/http"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/logger"
)

// HandlerWithError is an HTTP handler that may return an error instead of
// writing a response directly.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// body is the uniform JSON error shape of spec §6: {error, status, details}.
type body struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler wraps fn, converting a returned error into the uniform
// JSON error body. 5xx causes are logged with full detail and never
// leak their message to the client; 4xx causes return their message.
func ErrorHandler(fn HandlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, err)
		}
	}
}

// WriteError writes err as a JSON error body with the status errors.Code
// assigns it.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.Code(err)

	resp := body{Status: code}
	if code >= http.StatusInternalServerError {
		logger.Errorf("internal server error: %v", err)
		resp.Error = http.StatusText(code)
	} else {
		logger.Warnf("request failed: %v", err)
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// NotFoundHandler serves the JSON 404 fallback for unknown paths (spec
// §6: "The 404 fallback for unknown paths is JSON, not HTML").
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(body{Error: "not found", Status: http.StatusNotFound})
}
