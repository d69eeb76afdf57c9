package apierrors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metamcp/metamcp/pkg/errors"
)

func TestErrorHandler_PassesThroughSuccess(t *testing.T) {
	t.Parallel()

	handler := ErrorHandler(func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestErrorHandler_NotFoundReturnsMessage(t *testing.T) {
	t.Parallel()

	handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
		return errors.NewNotFoundError("backend not found", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "backend not found")
}

func TestErrorHandler_InternalErrorHidesMessage(t *testing.T) {
	t.Parallel()

	handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
		return errors.NewInternalError("leaked file path /etc/secrets", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "/etc/secrets")
}

func TestNotFoundHandler_IsJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	NotFoundHandler(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
